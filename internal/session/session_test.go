package session

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-revenue-report/internal/config"
	"go-revenue-report/internal/relation"
	"go-revenue-report/internal/store"
)

func TestBroadcastIsCached(t *testing.T) {
	s := New(nil, nil, Options{})
	defer s.Close()
	assert.Equal(t, relation.DefaultPartitions, s.Options.Partitions)

	depts := relation.MustNew("departments", []string{"departmentId"},
		relation.Row{relation.String("D1")},
	)
	a, err := s.Broadcast(depts, "departmentId")
	require.NoError(t, err)
	b, err := s.Broadcast(depts, "departmentId")
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, 1, s.Cached())

	s.Release(depts)
	assert.Equal(t, 0, s.Cached())
	c, err := s.Broadcast(depts, "departmentId")
	require.NoError(t, err)
	assert.NotSame(t, a, c)
}

func TestBroadcastRejectsDuplicateKeys(t *testing.T) {
	s := New(nil, nil, Options{Partitions: 2})
	defer s.Close()
	depts := relation.MustNew("departments", []string{"departmentId"},
		relation.Row{relation.String("D1")},
		relation.Row{relation.String("D1")},
	)
	_, err := s.Broadcast(depts, "departmentId")
	assert.True(t, errors.Is(err, relation.ErrKey))
}

func TestCloseReleasesStore(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "jobs.db"))
	require.NoError(t, err)
	s := New(nil, st, Options{})
	require.NotEmpty(t, s.ID)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.True(t, s.Closed())

	_, err = s.Broadcast(relation.MustNew("d", []string{"k"}), "k")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := &config.Config{
		App: config.AppConfig{OutputDir: "out"},
		Report: config.ReportConfig{
			Partitions:      4,
			Workers:         2,
			EmployeeType:    "Engineering",
			TransactionType: "Refund",
			JobTimeout:      time.Minute,
		},
	}
	assert.Equal(t, Options{
		Partitions:      4,
		Workers:         2,
		EmployeeType:    "Engineering",
		TransactionType: "Refund",
		JobTimeout:      time.Minute,
		OutputDir:       "out",
	}, OptionsFromConfig(cfg))
}
