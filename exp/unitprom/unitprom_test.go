package unitprom

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	borg "github.com/kibotu/Borg"
)

func TestObserverRecordsEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs, err := New(reg, "boot")
	require.NoError(t, err)

	obs.ObserveUnit(borg.Event{Key: "db", Duration: 120 * time.Millisecond})
	obs.ObserveUnit(borg.Event{Key: "db", Err: errors.New("dial timeout"), Duration: time.Millisecond})
	obs.ObserveState(borg.StateInProgress)

	assert.Equal(t, 1.0, testutil.ToFloat64(obs.initTotal.WithLabelValues("db", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(obs.initTotal.WithLabelValues("db", "error")))
	assert.Equal(t, float64(borg.StateInProgress), testutil.ToFloat64(obs.state))
	assert.Equal(t, 1, testutil.CollectAndCount(obs.initDuration))
}

func TestObserverWiredIntoOrchestrator(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs, err := New(reg, "boot")
	require.NoError(t, err)

	o, err := borg.New([]borg.Unit{
		borg.Func("cache", nil, func(context.Context, borg.Results) (any, error) {
			return "warm", nil
		}),
		borg.Func("api", []borg.Key{"cache"}, func(context.Context, borg.Results) (any, error) {
			return "listening", nil
		}),
	},
		borg.WithUnitObserver(obs.ObserveUnit),
		borg.WithStateObserver(obs.ObserveState),
	)
	require.NoError(t, err)
	require.NoError(t, o.Run(context.Background()))

	assert.Equal(t, 1.0, testutil.ToFloat64(obs.initTotal.WithLabelValues("cache", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(obs.initTotal.WithLabelValues("api", "success")))
	assert.Equal(t, float64(borg.StateComplete), testutil.ToFloat64(obs.state))
}

func TestObserverDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg, "boot")
	require.NoError(t, err)
	_, err = New(reg, "boot")
	require.Error(t, err)
}
