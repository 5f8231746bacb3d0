package terminal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
)

// Theme represents a terminal theme configuration
type Theme struct {
	Name         string `json:"name"`
	PromptColor  string `json:"promptColor"`
	TextColor    string `json:"textColor"`
	ErrorColor   string `json:"errorColor"`
	SuccessColor string `json:"successColor"`
	InfoColor    string `json:"infoColor"`
}

var themes = map[string]Theme{
	"light": {
		Name:         "light",
		PromptColor:  "black",
		TextColor:    "black",
		ErrorColor:   "red",
		SuccessColor: "green",
		InfoColor:    "blue",
	},
	"dark": {
		Name:         "dark",
		PromptColor:  "green",
		TextColor:    "white",
		ErrorColor:   "red",
		SuccessColor: "green",
		InfoColor:    "cyan",
	},
}

// ThemeManager handles theme operations
type ThemeManager struct {
	currentTheme Theme
	configPath   string
}

// NewThemeManager loads the theme saved at configPath, writing the default
// theme there when the file does not exist yet. An empty path keeps the
// theme in memory only.
func NewThemeManager(configPath string) (*ThemeManager, error) {
	tm := &ThemeManager{
		configPath:   configPath,
		currentTheme: themes["dark"],
	}
	if configPath == "" {
		return tm, nil
	}

	if err := tm.LoadTheme(); err != nil {
		if !os.IsNotExist(err) {
			return tm, fmt.Errorf("failed to load theme: %w", err)
		}
		if err := tm.SaveTheme(); err != nil {
			return tm, fmt.Errorf("failed to save default theme: %w", err)
		}
	}
	return tm, nil
}

// LoadTheme loads the theme from config file
func (tm *ThemeManager) LoadTheme() error {
	data, err := os.ReadFile(tm.configPath)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, &tm.currentTheme)
}

// SaveTheme saves the current theme to config file
func (tm *ThemeManager) SaveTheme() error {
	if tm.configPath == "" {
		return nil
	}
	data, err := json.MarshalIndent(tm.currentTheme, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(tm.configPath), 0755); err != nil {
		return err
	}
	return os.WriteFile(tm.configPath, data, 0644)
}

// SetTheme switches to a named theme and saves it
func (tm *ThemeManager) SetTheme(name string) error {
	theme, ok := themes[name]
	if !ok {
		return fmt.Errorf("unknown theme: %s", name)
	}
	tm.currentTheme = theme
	return tm.SaveTheme()
}

// ThemeName returns the name of the current theme
func (tm *ThemeManager) ThemeName() string {
	return tm.currentTheme.Name
}

func (tm *ThemeManager) PromptColor() *color.Color  { return colorFromName(tm.currentTheme.PromptColor) }
func (tm *ThemeManager) TextColor() *color.Color    { return colorFromName(tm.currentTheme.TextColor) }
func (tm *ThemeManager) ErrorColor() *color.Color   { return colorFromName(tm.currentTheme.ErrorColor) }
func (tm *ThemeManager) SuccessColor() *color.Color { return colorFromName(tm.currentTheme.SuccessColor) }
func (tm *ThemeManager) InfoColor() *color.Color    { return colorFromName(tm.currentTheme.InfoColor) }

// colorFromName returns a color.Color based on the color name
func colorFromName(name string) *color.Color {
	switch name {
	case "black":
		return color.New(color.FgBlack)
	case "red":
		return color.New(color.FgRed)
	case "green":
		return color.New(color.FgGreen)
	case "yellow":
		return color.New(color.FgYellow)
	case "blue":
		return color.New(color.FgBlue)
	case "magenta":
		return color.New(color.FgMagenta)
	case "cyan":
		return color.New(color.FgCyan)
	default:
		return color.New(color.FgWhite)
	}
}
