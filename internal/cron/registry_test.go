package cron

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type namedJob struct{ name string }

func (j *namedJob) Name() string              { return j.name }
func (j *namedJob) Run(context.Context) error { return nil }

func TestRegistryPreservesRegistrationOrder(t *testing.T) {
	first := &namedJob{name: "delivery-subscription"}
	second := &namedJob{name: "payment-reconcile"}
	registry := NewRegistry(first)
	registry.Register(second)
	registry.Register(nil)

	jobs := registry.Jobs()
	require.Len(t, jobs, 2)
	require.Same(t, first, jobs[0].(*namedJob))
	require.Same(t, second, jobs[1].(*namedJob))
}

func TestRegistryJobsReturnsCopy(t *testing.T) {
	registry := NewRegistry(&namedJob{name: "invoice-state"})
	jobs := registry.Jobs()
	jobs[0] = nil
	require.NotNil(t, registry.Jobs()[0])
}
