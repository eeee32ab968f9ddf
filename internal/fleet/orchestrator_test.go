package fleet

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"vdt/internal/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeProvider records calls and lets tests control readiness
type fakeProvider struct {
	mu        sync.Mutex
	instances []domain.Instance
	started   []string
	created   []domain.InstanceSpec
	waited    []string

	listErr   error
	startErr  error
	createErr error
	notReady  map[string]bool
	// release gates readiness per id; ids without a gate are ready immediately
	release map[string]chan struct{}
}

func (f *fakeProvider) ProjectID(ctx context.Context, name string) (string, error) {
	return "project-" + name, nil
}

func (f *fakeProvider) ListInstances(ctx context.Context, projectID string) ([]domain.Instance, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.instances, nil
}

func (f *fakeProvider) StartInstance(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = append(f.started, id)
	return f.startErr
}

func (f *fakeProvider) CreateInstance(ctx context.Context, spec domain.InstanceSpec) (domain.Instance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return domain.Instance{}, f.createErr
	}
	f.created = append(f.created, spec)
	return domain.Instance{ID: "id-" + spec.Name, Name: spec.Name, State: domain.StateTransitional}, nil
}

func (f *fakeProvider) WaitUntilReady(ctx context.Context, id string) error {
	f.mu.Lock()
	f.waited = append(f.waited, id)
	gate := f.release[id]
	notReady := f.notReady[id]
	f.mu.Unlock()

	if notReady {
		<-ctx.Done()
		return ctx.Err()
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func instance(index int, state domain.InstanceState) domain.Instance {
	name := InstanceName(DefaultPrefix, index)
	return domain.Instance{ID: "id-" + name, Name: name, State: state}
}

func TestOrchestrator_ReusesStartsAndCreates(t *testing.T) {
	provider := &fakeProvider{
		instances: []domain.Instance{
			instance(0, domain.StateOff),
			{ID: "foreign", Name: "someone-else", State: domain.StateOff},
			instance(3, domain.StateUnavailable),
		},
	}
	orchestrator := NewOrchestrator(provider, Options{}, nil)

	ready, err := orchestrator.Invoke(context.Background(), Request{ProjectID: "p", Amount: 3, GPUAcceleration: true})
	require.NoError(t, err)
	ids := Collect(ready)

	sort.Strings(ids)
	assert.Equal(t, []string{"id-vdt-android-0", "id-vdt-android-1", "id-vdt-android-2"}, ids)
	assert.Equal(t, []string{"id-vdt-android-0"}, provider.started)

	require.Len(t, provider.created, 2)
	var names []string
	for _, spec := range provider.created {
		names = append(names, spec.Name)
		assert.Equal(t, DefaultProfile.Flavor, spec.Flavor)
		assert.Equal(t, DefaultProfile.OS, spec.OS)
		assert.Equal(t, DefaultProfile.Screen, spec.Screen)
		assert.Equal(t, []string{GPUTag}, spec.Tags)
		assert.Equal(t, "p", spec.ProjectID)
	}
	sort.Strings(names)
	assert.Equal(t, []string{"vdt-android-1", "vdt-android-2"}, names)
}

func TestOrchestrator_NoCreationWhenEnoughExist(t *testing.T) {
	provider := &fakeProvider{
		instances: []domain.Instance{
			instance(0, domain.StateOn),
			instance(1, domain.StateOn),
			instance(2, domain.StateOff),
		},
	}
	orchestrator := NewOrchestrator(provider, Options{}, nil)

	ready, err := orchestrator.Invoke(context.Background(), Request{ProjectID: "p", Amount: 2})
	require.NoError(t, err)

	assert.Len(t, Collect(ready), 2)
	assert.Empty(t, provider.created)
	assert.Empty(t, provider.started, "running instances must not be started")
}

func TestOrchestrator_EmitsInCompletionOrder(t *testing.T) {
	provider := &fakeProvider{
		release: map[string]chan struct{}{
			"id-vdt-android-0": make(chan struct{}),
			"id-vdt-android-1": make(chan struct{}),
		},
	}
	orchestrator := NewOrchestrator(provider, Options{}, nil)

	ready, err := orchestrator.Invoke(context.Background(), Request{ProjectID: "p", Amount: 2})
	require.NoError(t, err)

	close(provider.release["id-vdt-android-1"])
	assert.Equal(t, "id-vdt-android-1", <-ready)
	close(provider.release["id-vdt-android-0"])
	assert.Equal(t, "id-vdt-android-0", <-ready)

	_, open := <-ready
	assert.False(t, open, "channel must close after all waits settle")
}

func TestOrchestrator_NotReadyInstanceDoesNotBlockOthers(t *testing.T) {
	provider := &fakeProvider{
		notReady: map[string]bool{"id-vdt-android-1": true},
	}
	orchestrator := NewOrchestrator(provider, Options{ReadyTimeout: 50 * time.Millisecond}, nil)

	ready, err := orchestrator.Invoke(context.Background(), Request{ProjectID: "p", Amount: 3})
	require.NoError(t, err)

	ids := Collect(ready)
	sort.Strings(ids)
	assert.Equal(t, []string{"id-vdt-android-0", "id-vdt-android-2"}, ids)
}

func TestOrchestrator_FatalErrors(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name     string
		provider *fakeProvider
		op       string
	}{
		{name: "list fails", provider: &fakeProvider{listErr: boom}, op: "list instances"},
		{
			name:     "start fails",
			provider: &fakeProvider{instances: []domain.Instance{instance(0, domain.StateOff)}, startErr: boom},
			op:       "start instance",
		},
		{name: "create fails", provider: &fakeProvider{createErr: boom}, op: "create instance"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orchestrator := NewOrchestrator(tt.provider, Options{}, nil)
			ready, err := orchestrator.Invoke(context.Background(), Request{ProjectID: "p", Amount: 2})

			assert.Nil(t, ready)
			var remoteErr *domain.RemoteOperationError
			require.ErrorAs(t, err, &remoteErr)
			assert.Equal(t, tt.op, remoteErr.Op)
			assert.ErrorIs(t, err, boom)
			assert.Empty(t, tt.provider.waited, "no wait may start after a fatal error")
		})
	}
}

func TestOrchestrator_ZeroAmount(t *testing.T) {
	orchestrator := NewOrchestrator(&fakeProvider{}, Options{}, nil)

	ready, err := orchestrator.Invoke(context.Background(), Request{ProjectID: "p", Amount: 0})
	require.NoError(t, err)
	assert.Empty(t, Collect(ready))
}

func TestOrchestrator_NegativeAmount(t *testing.T) {
	orchestrator := NewOrchestrator(&fakeProvider{}, Options{}, nil)

	_, err := orchestrator.Invoke(context.Background(), Request{ProjectID: "p", Amount: -1})
	var cfgErr *domain.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestOrchestrator_TakesAtMostAmount(t *testing.T) {
	var existing []domain.Instance
	for i := 0; i < 5; i++ {
		existing = append(existing, instance(i, domain.StateOff))
	}
	provider := &fakeProvider{instances: existing}
	orchestrator := NewOrchestrator(provider, Options{}, nil)

	ready, err := orchestrator.Invoke(context.Background(), Request{ProjectID: "p", Amount: 2})
	require.NoError(t, err)
	ids := Collect(ready)

	assert.Len(t, ids, 2)
	assert.Len(t, provider.started, 2, fmt.Sprintf("started %v", provider.started))
}
