package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	Primary   = lipgloss.Color("#7D56F4") // Purple
	Secondary = lipgloss.Color("#00F5FF") // Cyan
	Success   = lipgloss.Color("#00E680") // Green
	Warning   = lipgloss.Color("#FFB800") // Yellow
	Error     = lipgloss.Color("#FF4D4D") // Red
	Muted     = lipgloss.Color("#6B7280") // Gray
	Text      = lipgloss.Color("#E5E7EB") // Light Gray

	// Layout constants
	MinWidth  = 60
	MinHeight = 12

	// Title styles
	TitleStyle = lipgloss.NewStyle().
			Foreground(Text).
			Background(Primary).
			Padding(0, 1).
			Bold(true)

	SectionStyle = lipgloss.NewStyle().
			Foreground(Secondary).
			Bold(true)

	// Text styles
	TextStyle = lipgloss.NewStyle().
			Foreground(Text)

	MutedStyle = lipgloss.NewStyle().
			Foreground(Muted)

	NameStyle = lipgloss.NewStyle().
			Foreground(Text).
			Bold(true)

	// Status styles
	SuccessStyle = lipgloss.NewStyle().
			Foreground(Success)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Error)

	WarningStyle = lipgloss.NewStyle().
			Foreground(Warning)

	// Favorite markers
	FavoriteStyle = lipgloss.NewStyle().
			Foreground(Warning)

	RoleFavoriteStyle = lipgloss.NewStyle().
				Foreground(Secondary)

	// Link styles
	LinkStyle = lipgloss.NewStyle().
			Foreground(Secondary).
			Underline(true)

	DisabledStyle = lipgloss.NewStyle().
			Foreground(Muted).
			Strikethrough(true)

	// Form styles
	InputStyle = lipgloss.NewStyle().
			Foreground(Text).
			Padding(0, 1)

	FocusedInputStyle = lipgloss.NewStyle().
				Foreground(Primary).
				Padding(0, 1)

	CursorStyle = lipgloss.NewStyle().
			Reverse(true)

	// Focused row
	FocusedRowStyle = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	// Button styles
	ButtonStyle = lipgloss.NewStyle().
			Foreground(Text).
			Padding(0, 1)

	FocusedButtonStyle = lipgloss.NewStyle().
				Foreground(Primary).
				Padding(0, 1)

	// Spinner style
	SpinnerStyle = lipgloss.NewStyle().
			Foreground(Primary)

	// Box styles
	ErrorBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Error).
			Padding(0, 1)

	// Help text style
	HelpStyle = lipgloss.NewStyle().
			Foreground(Muted).
			Italic(true).
			MarginTop(1)

	// Full page content style
	FullPageStyle = lipgloss.NewStyle().
			Padding(1, 2)
)
