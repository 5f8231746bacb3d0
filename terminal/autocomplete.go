package terminal

import (
	"strings"

	"github.com/c-bata/go-prompt"

	"ftpbrowser/listing"
)

// CommandCompleter handles command and argument completion. Remote names
// come from the most recent listing.
type CommandCompleter struct {
	commands    []prompt.Suggest
	remoteFiles []string
	remoteDirs  []string
}

// NewCommandCompleter creates a new command completer
func NewCommandCompleter() *CommandCompleter {
	return &CommandCompleter{
		commands: []prompt.Suggest{
			{Text: "ls", Description: "List a remote directory"},
			{Text: "cd", Description: "Change remote directory"},
			{Text: "pwd", Description: "Show remote directory"},
			{Text: "get", Description: "Download files as one zip archive"},
			{Text: "theme", Description: "Change terminal theme (light/dark)"},
			{Text: "help", Description: "Show help information"},
			{Text: "exit", Description: "Leave the shell"},
		},
	}
}

// UpdateListing replaces the cached remote names
func (c *CommandCompleter) UpdateListing(entries []listing.Entry) {
	c.remoteFiles = c.remoteFiles[:0]
	c.remoteDirs = c.remoteDirs[:0]
	for _, e := range entries {
		if e.IsDir {
			c.remoteDirs = append(c.remoteDirs, e.Name)
		} else {
			c.remoteFiles = append(c.remoteFiles, e.Name)
		}
	}
}

// Completer returns suggestions for the current input
func (c *CommandCompleter) Completer(d prompt.Document) []prompt.Suggest {
	text := d.TextBeforeCursor()
	words := strings.Fields(text)

	if len(words) == 0 || (len(words) == 1 && !strings.HasSuffix(text, " ")) {
		return c.suggestCommands(words)
	}
	return c.suggestArguments(words, d.GetWordBeforeCursor())
}

func (c *CommandCompleter) suggestCommands(words []string) []prompt.Suggest {
	if len(words) == 0 {
		return c.commands
	}
	return prompt.FilterHasPrefix(c.commands, words[0], true)
}

func (c *CommandCompleter) suggestArguments(words []string, current string) []prompt.Suggest {
	switch strings.ToLower(words[0]) {
	case "cd", "ls":
		return suggest(c.remoteDirs, current, "Remote directory")
	case "get":
		return suggest(c.remoteFiles, current, "Remote file")
	case "theme":
		return prompt.FilterHasPrefix([]prompt.Suggest{
			{Text: "light", Description: "Light theme"},
			{Text: "dark", Description: "Dark theme"},
		}, current, true)
	default:
		return nil
	}
}

// suggest filters names by prefix, hiding dot names unless asked for
func suggest(names []string, prefix, description string) []prompt.Suggest {
	var suggestions []prompt.Suggest
	for _, name := range names {
		if strings.HasPrefix(name, ".") && !strings.HasPrefix(prefix, ".") {
			continue
		}
		if strings.HasPrefix(strings.ToLower(name), strings.ToLower(prefix)) {
			suggestions = append(suggestions, prompt.Suggest{Text: name, Description: description})
		}
	}
	return suggestions
}
