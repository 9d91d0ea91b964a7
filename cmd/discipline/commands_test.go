package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"disciplinebaby/app"
	"disciplinebaby/config"
	"disciplinebaby/logging"
	"disciplinebaby/models"
	"disciplinebaby/storage"
)

// Monday
var fixedNow = time.Date(2024, time.May, 6, 9, 0, 0, 0, time.UTC)

// memOpener opens apps over one shared in-memory filesystem so state
// survives between commands.
func memOpener(t *testing.T) opener {
	t.Helper()
	fsys := afero.NewMemMapFs()
	cfg := config.Config{UserID: models.DefaultUserID, LocalDir: "/data"}
	return func(ctx context.Context) (*app.App, error) {
		sel, err := storage.Open(ctx, app.OpenOptions(cfg, fsys, logging.Discard()))
		if err != nil {
			return nil, err
		}
		return app.Assemble(cfg, sel, logging.Discard(), func() time.Time { return fixedNow }), nil
	}
}

func run(t *testing.T, open opener, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(open)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestStatus(t *testing.T) {
	out, err := run(t, memOpener(t), "status")
	require.NoError(t, err)

	assert.Contains(t, out, "Backend:    local (persistent: false)")
	assert.Contains(t, out, "Level:      1 (75/100 XP)")
}

func TestTodayAndComplete(t *testing.T) {
	open := memOpener(t)

	out, err := run(t, open, "today")
	require.NoError(t, err)
	assert.Contains(t, out, "Read for 20 minutes")
	assert.NotContains(t, out, "Practice drawing")

	a, err := open(context.Background())
	require.NoError(t, err)
	id := a.Tasks.Load(context.Background())[0].ID

	out, err = run(t, open, "complete", id)
	require.NoError(t, err)
	assert.Contains(t, out, "(+5 XP)")

	out, err = run(t, open, "complete", id)
	require.NoError(t, err)
	assert.Contains(t, out, "already completed")

	out, err = run(t, open, "complete", "--undo", id)
	require.NoError(t, err)
	assert.Contains(t, out, "(-5 XP)")
}

func TestCompleteUnknownTask(t *testing.T) {
	_, err := run(t, memOpener(t), "complete", "missing")
	assert.Error(t, err)
}

func TestCompleteRequiresID(t *testing.T) {
	_, err := run(t, memOpener(t), "complete")
	assert.EqualError(t, err, "task id is required")
}

func TestReport(t *testing.T) {
	out, err := run(t, memOpener(t), "report")
	require.NoError(t, err)
	assert.Contains(t, out, "2024-05-06 mon 0")
	assert.Contains(t, out, "Total: 0 completed (0%)")
}

func TestSyncRefusesWithoutPersistentBackend(t *testing.T) {
	_, err := run(t, memOpener(t), "sync")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sync failed")
}
