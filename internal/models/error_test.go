package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConflictsError(t *testing.T) {
	b, err := json.Marshal(NewConflictsError("device", "already registered"))
	require.NoError(t, err)
	require.Equal(t, `{"error":"conflict","resource":"device","reason":"already registered"}`, string(b))
}

func TestUnavailableError(t *testing.T) {
	b, err := json.Marshal(NewUnavailableError("device suspended"))
	require.NoError(t, err)
	require.Equal(t, `{"error":"service unavailable","reason":"device suspended"}`, string(b))
}

func TestNotificationTargetValidate(t *testing.T) {
	require.NoError(t, NotificationTarget{}.Validate())
	require.NoError(t, NotificationTarget{Email: "owner@example.com", LineToken: "abc"}.Validate())
	require.Error(t, NotificationTarget{Email: "not an email"}.Validate())
	require.Error(t, NotificationTarget{Email: "Owner <owner@example.com>"}.Validate())
}

func TestNotificationTargetScan(t *testing.T) {
	var n NotificationTarget
	require.NoError(t, n.Scan([]byte(`{"line_token":"tok","email":"a@b.jp"}`)))
	require.Equal(t, NotificationTarget{LineToken: "tok", Email: "a@b.jp"}, n)

	require.NoError(t, n.Scan(nil))
	require.True(t, n.IsZero())
}

func TestDeviceAlerts(t *testing.T) {
	d := Device{}
	require.True(t, d.Alerts("bear"))
	d.DetectionTargets = []string{"bear", "vehicle"}
	require.True(t, d.Alerts("bear"))
	require.False(t, d.Alerts("human"))
}
