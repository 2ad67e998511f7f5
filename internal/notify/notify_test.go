package notify

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueue(t *testing.T) {
	var q Queue
	q.Notify(Notice{Title: "a", Variant: Success})
	q.Notify(Notice{Title: "b", Variant: Error})

	assert.Len(t, q.Notices(), 2)
	drained := q.Drain()
	assert.Equal(t, []Notice{{Title: "a", Variant: Success}, {Title: "b", Variant: Error}}, drained)
	assert.Empty(t, q.Drain())
}

func TestLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	var q Queue

	Logged(logger, &q).Notify(Notice{Title: "Export Failed", Description: "boom", Variant: Error})

	assert.Len(t, q.Notices(), 1)
	out := buf.String()
	assert.True(t, strings.Contains(out, "level=WARN"), out)
	assert.Contains(t, out, `title="Export Failed"`)
}
