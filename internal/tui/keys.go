package tui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	NextTab   key.Binding
	PrevTab   key.Binding
	T500      key.Binding
	T700      key.Binding
	Metric    key.Binding
	RangePrev key.Binding
	RangeNext key.Binding
	Custom    key.Binding
	Up        key.Binding
	Down      key.Binding
	New       key.Binding
	Edit      key.Binding
	Delete    key.Binding
	Status    key.Binding
	Select    key.Binding
	Save      key.Binding
	Back      key.Binding
	Reload    key.Binding
	Help      key.Binding
	Quit      key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		NextTab:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next view")),
		PrevTab:   key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous view")),
		T500:      key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "T500")),
		T700:      key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "T700")),
		Metric:    key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "next metric")),
		RangePrev: key.NewBinding(key.WithKeys("["), key.WithHelp("[", "shorter range")),
		RangeNext: key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "longer range")),
		Custom:    key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "custom range")),
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		New:       key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new task")),
		Edit:      key.NewBinding(key.WithKeys("e", "enter"), key.WithHelp("e", "edit")),
		Delete:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Status:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "next status")),
		Select:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		Save:      key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
		Back:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Reload:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextTab, k.T500, k.T700, k.Reload, k.Help, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextTab, k.PrevTab, k.T500, k.T700},
		{k.Metric, k.RangePrev, k.RangeNext, k.Custom},
		{k.Up, k.Down, k.New, k.Edit, k.Delete, k.Status},
		{k.Select, k.Save, k.Back},
		{k.Reload, k.Help, k.Quit},
	}
}
