package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"wwtpDashboard/internal/models/sensor"
	"wwtpDashboard/internal/models/task"
	"wwtpDashboard/internal/spreadsheet"
)

// HTTPDoer defines the http.Client subset the client needs.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// APIError is a non-2xx answer from the REST service.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api: %d %s", e.Status, e.Code)
}

type Latest struct {
	Current  *sensor.Reading `json:"current"`
	Past     *sensor.Reading `json:"past"`
	AgoHours float64         `json:"agoHours"`
}

type Series struct {
	Table     string               `json:"table"`
	Cols      []string             `json:"cols"`
	BucketSec int64                `json:"bucketSec"`
	Rows      []sensor.BucketPoint `json:"rows"`
}

// Client talks to the dashboard REST service.
type Client struct {
	baseURL string
	client  HTTPDoer
}

func NewClient(baseURL string, client HTTPDoer) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// NewDefaultHTTPClient returns *http.Client with timeout.
func NewDefaultHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	body, _, err := c.send(ctx, http.MethodGet, path, query, nil, "")
	if err != nil {
		return err
	}
	return decode(path, body, out)
}

func (c *Client) sendJSON(ctx context.Context, method, path string, in, out any) error {
	var payload io.Reader
	contentType := ""
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s: %w", path, err)
		}
		payload = bytes.NewReader(data)
		contentType = "application/json"
	}
	body, _, err := c.send(ctx, method, path, nil, payload, contentType)
	if err != nil {
		return err
	}
	return decode(path, body, out)
}

// send performs one request and returns the body of a 2xx answer. Any
// other status becomes an *APIError.
func (c *Client) send(ctx context.Context, method, path string, query url.Values, payload io.Reader, contentType string) ([]byte, http.Header, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, payload)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var errBody struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if json.Unmarshal(body, &errBody) == nil {
			apiErr.Code, apiErr.Message = errBody.Error, errBody.Message
		}
		return nil, nil, apiErr
	}
	return body, resp.Header, nil
}

func decode(path string, body []byte, out any) error {
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) Health(ctx context.Context) error {
	return c.get(ctx, "/health", nil, nil)
}

// Latest fetches the newest reading of tank and the one agoHours earlier.
func (c *Client) Latest(ctx context.Context, tank sensor.Tank, agoHours int) (*Latest, error) {
	q := url.Values{}
	q.Set("table", tank.Name)
	q.Set("agoHours", strconv.Itoa(agoHours))

	var out Latest
	if err := c.get(ctx, "/sensors/latest", q, &out); err != nil {
		return nil, err
	}
	if out.Current != nil {
		out.Current.Tank = tank
	}
	if out.Past != nil {
		out.Past.Tank = tank
	}
	return &out, nil
}

// Series fetches the bucketed averages of tank over [start, end].
func (c *Client) Series(ctx context.Context, tank sensor.Tank, start, end time.Time) (*Series, error) {
	q := url.Values{}
	q.Set("table", tank.Name)
	q.Set("start", start.UTC().Format(time.RFC3339))
	q.Set("end", end.UTC().Format(time.RFC3339))

	var out Series
	if err := c.get(ctx, "/sensors/series", q, &out); err != nil {
		return nil, err
	}
	for i := range out.Rows {
		out.Rows[i].Tank = tank
	}
	return &out, nil
}

func (c *Client) Tasks(ctx context.Context) ([]task.Task, error) {
	var out []task.Task
	if err := c.get(ctx, "/tasks", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Upcoming(ctx context.Context) ([]task.Notification, error) {
	var out []task.Notification
	if err := c.get(ctx, "/tasks/upcoming", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// TaskDraft is the body of a new task. Empty strings are sent as null.
type TaskDraft struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	DueDate     *string `json:"due_date"`
	Status      string  `json:"status"`
	PicLapangan *string `json:"pic_lapangan"`
}

// TaskChanges is a partial update; unset fields are left out of the body.
type TaskChanges struct {
	Title       task.Optional[string] `json:"title,omitzero"`
	Description task.Optional[string] `json:"description,omitzero"`
	DueDate     task.Optional[string] `json:"due_date,omitzero"`
	Status      task.Optional[string] `json:"status,omitzero"`
	PicLapangan task.Optional[string] `json:"pic_lapangan,omitzero"`
}

func (c *Client) CreateTask(ctx context.Context, draft TaskDraft) (*task.Task, error) {
	var out task.Task
	if err := c.sendJSON(ctx, http.MethodPost, "/tasks", draft, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateTask returns nil without error when the task no longer exists.
func (c *Client) UpdateTask(ctx context.Context, id int64, changes TaskChanges) (*task.Task, error) {
	var out *task.Task
	if err := c.sendJSON(ctx, http.MethodPut, "/tasks/"+strconv.FormatInt(id, 10), changes, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) DeleteTask(ctx context.Context, id int64) error {
	return c.sendJSON(ctx, http.MethodDelete, "/tasks/"+strconv.FormatInt(id, 10), nil, nil)
}

// ImportTasks uploads a workbook as the multipart field "file" and returns
// the number of tasks inserted.
func (c *Client) ImportTasks(ctx context.Context, filename string, r io.Reader) (int, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return 0, err
	}
	if _, err := io.Copy(part, r); err != nil {
		return 0, fmt.Errorf("read %s: %w", filename, err)
	}
	if err := mw.Close(); err != nil {
		return 0, err
	}

	body, _, err := c.send(ctx, http.MethodPost, "/tasks/import", nil, &buf, mw.FormDataContentType())
	if err != nil {
		return 0, err
	}
	var out struct {
		Inserted int `json:"inserted"`
	}
	if err := decode("/tasks/import", body, &out); err != nil {
		return 0, err
	}
	return out.Inserted, nil
}

// ExportTasks downloads the workbook of tasks due between two YYYY-MM-DD dates.
func (c *Client) ExportTasks(ctx context.Context, start, end string) (*spreadsheet.File, error) {
	q := url.Values{}
	q.Set("start", start)
	q.Set("end", end)
	return c.download(ctx, "/tasks/export", q, fmt.Sprintf("tasks %s s.d %s.xlsx", start, end))
}

// ExportSensors downloads the readings of tank in [start, end].
func (c *Client) ExportSensors(ctx context.Context, tank sensor.Tank, start, end time.Time) (*spreadsheet.File, error) {
	q := url.Values{}
	q.Set("table", tank.Name)
	q.Set("start", start.UTC().Format(time.RFC3339))
	q.Set("end", end.UTC().Format(time.RFC3339))
	return c.download(ctx, "/sensors/export", q, tank.Name+".xlsx")
}

func (c *Client) download(ctx context.Context, path string, query url.Values, fallback string) (*spreadsheet.File, error) {
	body, header, err := c.send(ctx, http.MethodGet, path, query, nil, "")
	if err != nil {
		return nil, err
	}
	name := fallback
	if _, params, err := mime.ParseMediaType(header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
		name = params["filename"]
	}
	return &spreadsheet.File{Filename: name, Data: body}, nil
}
