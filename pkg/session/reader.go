package session

import (
	"github.com/chzyer/readline"
)

// LineReader abstracts interactive line input so the collector loop can be
// driven by readline in production and by a script in tests.
type LineReader interface {
	ReadLine() (string, error)
	SetPrompt(prompt string)
	Close() error
}

// readlineReader adapts a readline.Instance to LineReader.
type readlineReader struct {
	rl *readline.Instance
}

// NewReadlineReader opens a readline-backed reader with tab completion for
// the recognized command families. historyFile may be empty to disable
// persistent history; otherwise every submitted line is appended to it and
// flushed when the reader is closed.
func NewReadlineReader(historyFile string) (LineReader, error) {
	completer := readline.NewPrefixCompleter(
		readline.PcItem("kubectl",
			readline.PcItem("create"),
			readline.PcItem("delete"),
			readline.PcItem("get"),
			readline.PcItem("describe"),
			readline.PcItem("cordon"),
			readline.PcItem("drain"),
			readline.PcItem("uncordon"),
			readline.PcItem("expose"),
			readline.PcItem("scale"),
			readline.PcItem("logs"),
			readline.PcItem("top"),
			readline.PcItem("edit"),
		),
		readline.PcItem("kubeadm",
			readline.PcItem("upgrade"),
		),
		readline.PcItem("etcdctl",
			readline.PcItem("snapshot"),
		),
		readline.PcItem("systemctl",
			readline.PcItem("start"),
			readline.PcItem("restart"),
			readline.PcItem("enable"),
			readline.PcItem("status"),
			readline.PcItem("daemon-reload"),
		),
		readline.PcItem("apt-get",
			readline.PcItem("install"),
		),
	)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		HistoryFile:     historyFile,
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, err
	}
	return &readlineReader{rl: rl}, nil
}

func (r *readlineReader) ReadLine() (string, error) {
	return r.rl.Readline()
}

func (r *readlineReader) SetPrompt(prompt string) {
	r.rl.SetPrompt(prompt)
}

func (r *readlineReader) Close() error {
	return r.rl.Close()
}
