package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

// Template is a named example snippet shipped with the CLI.
type Template struct {
	Name string
	Code string
}

// Templates are the built-in example snippets, covering the common statement
// and expression shapes. The picker prints the selected snippet to stdout so
// it can be piped straight into `astviz graph -`.
var Templates = []Template{
	{
		Name: "For loop with assignment",
		Code: "for i in range(3):\n    x = i * 2\n",
	},
	{
		Name: "Function with type annotations",
		Code: "def greet(name: str) -> str:\n    return f\"Hello, {name}!\"\n",
	},
	{
		Name: "Class inheritance and method",
		Code: "class Animal:\n    def speak(self):\n        pass\n\nclass Dog(Animal):\n    def speak(self):\n        return \"Woof!\"\n",
	},
	{
		Name: "List comprehension",
		Code: "numbers = [x ** 2 for x in range(10) if x % 2 == 0]\n",
	},
	{
		Name: "Lambda function",
		Code: "add = lambda x, y: x + y\n",
	},
	{
		Name: "Function with decorator",
		Code: "def log(func):\n    def wrapper(*args, **kwargs):\n        print(\"Calling\", func.__name__)\n        return func(*args, **kwargs)\n    return wrapper\n\n@log\ndef foo():\n    return \"bar\"\n",
	},
	{
		Name: "Exception handling",
		Code: "try:\n    1 / 0\nexcept ZeroDivisionError as e:\n    print(\"Can't divide by zero!\")\nfinally:\n    print(\"Done\")\n",
	},
	{
		Name: "F-string example",
		Code: "value = 42\nmsg = f\"Value is {value}\"\n",
	},
	{
		Name: "Match-case (Python 3.10+)",
		Code: "def what_day(day):\n    match day:\n        case \"Monday\":\n            return 1\n        case \"Tuesday\":\n            return 2\n        case _:\n            return 0\n",
	},
}

// newTemplatesCmd creates the templates command for browsing the built-in
// example snippets.
func newTemplatesCmd() *cobra.Command {
	var pick bool

	cmd := &cobra.Command{
		Use:   "templates [index]",
		Short: "List or pick built-in example snippets",
		Long: `List the built-in example snippets, print one by index, or pick one
interactively with --pick. The selected snippet is written to stdout:

  astviz templates --pick | astviz graph -`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return printTemplate(args[0])
			}
			if pick {
				return pickTemplate()
			}
			listTemplates()
			return nil
		},
	}

	cmd.Flags().BoolVar(&pick, "pick", false, "pick a snippet interactively")
	return cmd
}

func listTemplates() {
	for i, t := range Templates {
		fmt.Printf("%2d  %s\n", i+1, t.Name)
	}
}

func printTemplate(arg string) error {
	i, err := strconv.Atoi(arg)
	if err != nil || i < 1 || i > len(Templates) {
		return fmt.Errorf("invalid template index: %q (must be 1-%d)", arg, len(Templates))
	}
	fmt.Print(Templates[i-1].Code)
	return nil
}

// pickTemplate runs the interactive picker and prints the selection.
func pickTemplate() error {
	m := newTemplateListModel(Templates)
	final, err := tea.NewProgram(m, tea.WithOutput(os.Stderr)).Run()
	if err != nil {
		return err
	}
	result := final.(templateListModel)
	if result.selected == nil {
		return nil
	}
	fmt.Print(result.selected.Code)
	return nil
}

// List styles
var (
	tplTitleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("36"))
	tplSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("36"))
	tplNormalStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	tplDimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// templateListModel is the bubbletea model for interactive snippet selection.
type templateListModel struct {
	templates []Template
	cursor    int
	selected  *Template
}

func newTemplateListModel(templates []Template) templateListModel {
	return templateListModel{templates: templates}
}

func (m templateListModel) Init() tea.Cmd {
	return nil
}

func (m templateListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.templates)-1 {
				m.cursor++
			}
		case "enter":
			m.selected = &m.templates[m.cursor]
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m templateListModel) View() string {
	var b strings.Builder

	b.WriteString(tplTitleStyle.Render("Select Snippet"))
	b.WriteString("\n")
	b.WriteString(tplDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	for i, t := range m.templates {
		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}

		line := cursor + t.Name
		if i == m.cursor {
			b.WriteString(tplSelectedStyle.Render(line))
		} else {
			b.WriteString(tplNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	preview := strings.TrimRight(m.templates[m.cursor].Code, "\n")
	b.WriteString(tplDimStyle.Render(preview))
	b.WriteString("\n")

	return b.String()
}
