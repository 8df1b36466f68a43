package cli

import (
	"fmt"
	"io"
	"sync"
)

// notifier prints notifications on their own line, prefixed so they stand apart
// from page output.
type notifier struct {
	mu sync.Mutex
	w  io.Writer
}

func (n *notifier) Notify(title, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.w, "! %s: %s\n", title, message)
}

// navigator cannot move a browser; it tells the user where to go instead.
type navigator struct {
	n       *notifier
	baseURL string
}

func (v *navigator) Navigate(path string) {
	v.n.Notify("Login required", fmt.Sprintf("run 'login' or open %s%s in a browser", v.baseURL, path))
}
