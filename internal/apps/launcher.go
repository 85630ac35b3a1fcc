package apps

import (
	"fmt"
	"os/exec"
	"sort"
	"strings"
)

// Launcher resolves spoken app names to local launch commands through a
// fixed table loaded from configuration.
type Launcher struct {
	table map[string][]string
}

// New builds a launcher over a name → argv table.
func New(table map[string][]string) *Launcher {
	normalized := make(map[string][]string, len(table))
	for name, argv := range table {
		normalized[strings.ToLower(strings.TrimSpace(name))] = argv
	}
	return &Launcher{table: normalized}
}

// Launch starts the command bound to name without waiting for it to exit.
func (l *Launcher) Launch(name string) error {
	argv, ok := l.table[strings.ToLower(strings.TrimSpace(name))]
	if !ok || len(argv) == 0 {
		return fmt.Errorf("unknown application %q", name)
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launch %s: %w", name, err)
	}
	go cmd.Wait() // reap
	return nil
}

// Names lists the launchable app names, sorted.
func (l *Launcher) Names() []string {
	names := make([]string, 0, len(l.table))
	for name := range l.table {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
