package discord

import (
	"errors"
	"testing"
	"time"

	"github.com/hugolgst/rich-go/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chasetripleseven/attention/internal/domain"
	"github.com/chasetripleseven/attention/internal/logger"
)

type fakeIPC struct {
	loginErr    error
	activityErr error

	logins     []string
	activities []client.Activity
	logouts    int
}

func newTestReporter(ipc *fakeIPC) *Reporter {
	r := NewReporter("", logger.NewTestLogger())
	r.login = func(appID string) error {
		ipc.logins = append(ipc.logins, appID)
		return ipc.loginErr
	}
	r.setActivity = func(a client.Activity) error {
		if ipc.activityErr != nil {
			return ipc.activityErr
		}
		ipc.activities = append(ipc.activities, a)
		return nil
	}
	r.logout = func() { ipc.logouts++ }
	r.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return r
}

func TestReporter_ConnectAndReport(t *testing.T) {
	ipc := &fakeIPC{}
	r := newTestReporter(ipc)

	require.NoError(t, r.Connect())
	require.NoError(t, r.Connect(), "second connect is a no-op")
	assert.Equal(t, []string{DefaultAppID}, ipc.logins)
	assert.True(t, r.Connected())

	require.NoError(t, r.Report("Band", "Song"))
	require.Len(t, ipc.activities, 1)

	activity := ipc.activities[0]
	assert.Equal(t, "Band", activity.Details)
	assert.Equal(t, "Song", activity.State)
	require.Len(t, activity.Buttons, 1)
	assert.Equal(t, ButtonLabel, activity.Buttons[0].Label)
	assert.Equal(t, ButtonURL, activity.Buttons[0].Url)
	assert.Empty(t, activity.LargeImage)
	require.NotNil(t, activity.Timestamps)
	assert.Equal(t, 2026, activity.Timestamps.Start.Year())
}

func TestReporter_ConnectFailure(t *testing.T) {
	ipc := &fakeIPC{loginErr: errors.New("dial unix: no such file")}
	r := newTestReporter(ipc)

	err := r.Connect()
	assert.ErrorIs(t, err, domain.ErrPresenceUnavailable)
	assert.False(t, r.Connected())

	assert.ErrorIs(t, r.Report("Band", "Song"), domain.ErrPresenceUnavailable)
	assert.NoError(t, r.Clear())
	assert.NoError(t, r.Close())
	assert.Zero(t, ipc.logouts, "never opened, never closed")
}

func TestReporter_ReportError(t *testing.T) {
	ipc := &fakeIPC{}
	r := newTestReporter(ipc)
	require.NoError(t, r.Connect())

	ipc.activityErr = errors.New("broken pipe")
	assert.ErrorContains(t, r.Report("Band", "Song"), "broken pipe")
}

func TestReporter_ClearAndClose(t *testing.T) {
	ipc := &fakeIPC{}
	r := newTestReporter(ipc)
	require.NoError(t, r.Connect())

	require.NoError(t, r.Clear())
	require.Len(t, ipc.activities, 1)
	assert.Equal(t, client.Activity{}, ipc.activities[0])

	require.NoError(t, r.Close())
	require.NoError(t, r.Close())
	assert.Equal(t, 1, ipc.logouts)
	assert.False(t, r.Connected())
}

func TestNoop(t *testing.T) {
	var n Noop
	assert.NoError(t, n.Report("a", "b"))
	assert.NoError(t, n.Clear())
	assert.NoError(t, n.Close())
}
