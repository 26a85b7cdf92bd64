package playground

import (
	"embed"
	"path"
	"sort"
	"strings"

	"github.com/smartdevs17/passkey-playground/pkg/utils"
)

//go:embed snippets/*.tsx
var snippetFS embed.FS

// Snippet is a copyable integration example
type Snippet struct {
	Name     string `json:"name"`
	Title    string `json:"title"`
	Language string `json:"language"`
	Code     string `json:"code,omitempty"`
}

var snippetTitles = map[string]string{
	"provider":         "Wrap your app in the wallet provider",
	"connect":          "Connect with a passkey",
	"sign-message":     "Sign a message",
	"send-transaction": "Send a gasless transfer",
	"subscription":     "Charge a subscription",
}

// Snippets lists the available snippets without their code
func Snippets() []Snippet {
	entries, err := snippetFS.ReadDir("snippets")
	if err != nil {
		return nil
	}

	out := make([]Snippet, 0, len(entries))
	for _, entry := range entries {
		name := strings.TrimSuffix(entry.Name(), path.Ext(entry.Name()))
		out = append(out, Snippet{Name: name, Title: snippetTitles[name], Language: "tsx"})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// GetSnippet returns one snippet including its code
func GetSnippet(name string) (Snippet, error) {
	code, err := snippetFS.ReadFile("snippets/" + path.Base(name) + ".tsx")
	if err != nil {
		return Snippet{}, utils.NewAppError(utils.ErrCodeNotFound, "Snippet not found", name)
	}
	return Snippet{Name: name, Title: snippetTitles[name], Language: "tsx", Code: string(code)}, nil
}
