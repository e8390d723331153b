package queue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivityLog_Handle(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	sink := NewActivityLog(dir)

	ev := LeadEvent{
		Type:       LeadCreated,
		LeadID:     "12",
		OwnerID:    "3",
		Email:      "jo@x.com",
		Status:     "new",
		Score:      40,
		OccurredAt: time.Date(2024, 5, 17, 9, 30, 0, 0, time.UTC),
	}
	body, err := json.Marshal(ev)
	require.NoError(t, err)
	require.NoError(t, sink.Handle(body))

	ev.Type = LeadDeleted
	body, err = json.Marshal(ev)
	require.NoError(t, err)
	require.NoError(t, sink.Handle(body))

	raw, err := os.ReadFile(filepath.Join(dir, "lead_activity.log"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `[2024-05-17T09:30:00Z] lead.created | lead_id=12 | owner_id=3 | email="jo@x.com" | status=new | score=40`, lines[0])
	assert.Contains(t, lines[1], "lead.deleted")
}

func TestActivityLog_RejectsMalformed(t *testing.T) {
	dir := t.TempDir()
	sink := NewActivityLog(dir)
	assert.Error(t, sink.Handle([]byte("{not json")))
	assert.Error(t, sink.Handle([]byte(`{"type":""}`)))
	_, err := os.Stat(filepath.Join(dir, "lead_activity.log"))
	assert.True(t, os.IsNotExist(err))
}
