package sei

import (
	"context"
	"errors"
	devenv "seiassist-backend/dev/env"
	"testing"

	"github.com/stretchr/testify/require"
)

func getLiveConfig(t testing.TB) devenv.SeiTestConfig {
	config, err := devenv.GetSeiTestConfig()
	if errors.Is(err, devenv.ErrNoCredentials) {
		t.Skip("set APP_USERNAME and APP_PASSWORD to run tests against the portal")
	}
	require.NoError(t, err)
	return config
}

func TestLivePortal(t *testing.T) {
	config := getLiveConfig(t)
	ctx := context.Background()

	client, err := NewClient(ClientOptions{BaseUrl: config.BaseUrl, RequestsPerSecond: 2})
	require.NoError(t, err)

	res := client.Login(ctx, config.Username, config.Password)
	require.True(t, res.Success, res.Error)
	require.NotEmpty(t, res.Token)

	schedule, err := client.Schedule(ctx, res.Token)
	require.NoError(t, err)
	require.Len(t, schedule, len(Weekdays))

	courses, err := client.Courses(ctx, res.Token)
	require.NoError(t, err)
	for _, course := range courses {
		require.NotEmpty(t, course.Name)
	}

	_, err = client.Grades(ctx, res.Token)
	require.NoError(t, err)
}

func TestLivePortalInvalidCredentials(t *testing.T) {
	config := getLiveConfig(t)
	ctx := context.Background()

	client, err := NewClient(ClientOptions{BaseUrl: config.BaseUrl, RequestsPerSecond: 2})
	require.NoError(t, err)

	res := client.Login(ctx, config.Username, config.Password+"-wrong")
	require.False(t, res.Success)
	require.Regexp(t, "(?i)invalid", res.Error)

	_, err = client.Grades(ctx, "00000000000000000000000000000000")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}
