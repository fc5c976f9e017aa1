package notify

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

type fakePub struct {
	types []string
	data  []any
}

func (p *fakePub) Publish(eventType string, data any) {
	p.types = append(p.types, eventType)
	p.data = append(p.data, data)
}

func TestMultiFansOut(t *testing.T) {
	var buf bytes.Buffer
	pub := &fakePub{}
	rec := &Recorder{}
	n := Multi{
		Log{Logger: slog.New(slog.NewTextHandler(&buf, nil))},
		Broadcast{Pub: pub},
		rec,
	}

	n.Error("position taken")
	n.Success("saved")

	if !strings.Contains(buf.String(), "position taken") {
		t.Errorf("log output missing message: %s", buf.String())
	}
	if len(pub.types) != 2 || pub.types[0] != "toast.error" || pub.types[1] != "toast.success" {
		t.Errorf("published = %v", pub.types)
	}
	msgs := rec.Messages()
	if len(msgs) != 2 || msgs[0] != (Message{Level: "error", Text: "position taken"}) {
		t.Errorf("recorded = %+v", msgs)
	}
}
