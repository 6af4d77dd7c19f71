package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"selfserve-cloud-portal/internal/provider"
	"selfserve-cloud-portal/internal/session"
)

// fakeCapability lets each test script the backend's behavior.
type fakeCapability struct {
	noun     string
	createFn func(ctx context.Context, params provider.CreateParams) (*provider.CreateResult, error)
	listFn   func(ctx context.Context) ([]provider.Resource, error)
}

func (f *fakeCapability) CreateResource(ctx context.Context, params provider.CreateParams) (*provider.CreateResult, error) {
	return f.createFn(ctx, params)
}

func (f *fakeCapability) ListResources(ctx context.Context) ([]provider.Resource, error) {
	return f.listFn(ctx)
}

func (f *fakeCapability) ResourceNoun() string { return f.noun }

type fakeResolver struct {
	caps map[provider.Name]provider.Capability
}

func (r *fakeResolver) Resolve(name provider.Name) (provider.Capability, error) {
	cap, ok := r.caps[name]
	if !ok {
		return nil, provider.ErrUnknownProvider
	}
	return cap, nil
}

type appendCall struct {
	actor, action, provider string
}

type fakeTrail struct {
	mu        sync.Mutex
	appends   []appendCall
	appendErr error
}

func (t *fakeTrail) Append(ctx context.Context, actor, action, providerName string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.appendErr != nil {
		return t.appendErr
	}
	t.appends = append(t.appends, appendCall{actor, action, providerName})
	return nil
}

func authedSession(t *testing.T, identity string) *session.Session {
	t.Helper()
	m := session.NewManager(time.Hour)
	s, err := m.Begin()
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	s, err = m.Authenticate(s.ID(), identity)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	return s
}

func anonymousSession(t *testing.T) *session.Session {
	t.Helper()
	m := session.NewManager(time.Hour)
	s, err := m.Begin()
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	return s
}

func okCapability(noun string) *fakeCapability {
	return &fakeCapability{
		noun: noun,
		createFn: func(ctx context.Context, params provider.CreateParams) (*provider.CreateResult, error) {
			return &provider.CreateResult{Status: "created", ResourceID: "r-1", Name: params.Name}, nil
		},
		listFn: func(ctx context.Context) ([]provider.Resource, error) {
			return []provider.Resource{{ResourceID: "r-1", Name: "one", Status: "running"}}, nil
		},
	}
}

func TestPerform_RequiresAuthentication(t *testing.T) {
	trail := &fakeTrail{}
	svc := NewService(&fakeResolver{caps: map[provider.Name]provider.Capability{
		provider.AWS: okCapability("Instance"),
	}}, trail, time.Second, nil)

	_, err := svc.Perform(context.Background(), anonymousSession(t), provider.AWS, ActionCreate, provider.CreateParams{})
	if !errors.Is(err, session.ErrNotAuthenticated) {
		t.Fatalf("err = %v, want ErrNotAuthenticated", err)
	}
	if len(trail.appends) != 0 {
		t.Error("nothing must be audited for an anonymous caller")
	}
}

func TestPerform_UnknownProvider(t *testing.T) {
	svc := NewService(&fakeResolver{caps: nil}, &fakeTrail{}, time.Second, nil)
	_, err := svc.Perform(context.Background(), authedSession(t, "alice"), "DigitalOcean", ActionList, provider.CreateParams{})
	if !errors.Is(err, provider.ErrUnknownProvider) {
		t.Fatalf("err = %v, want ErrUnknownProvider", err)
	}
}

func TestPerform_CreateAuditsWithResourceNoun(t *testing.T) {
	trail := &fakeTrail{}
	svc := NewService(&fakeResolver{caps: map[provider.Name]provider.Capability{
		provider.AWS:       okCapability("Instance"),
		provider.OpenStack: okCapability("VM"),
	}}, trail, time.Second, nil)
	sess := authedSession(t, "alice")

	res, err := svc.Perform(context.Background(), sess, provider.AWS, ActionCreate, provider.CreateParams{Name: "web"})
	if err != nil {
		t.Fatalf("Perform: %v", err)
	}
	if res.Created == nil || res.Created.ResourceID != "r-1" {
		t.Errorf("result = %+v", res)
	}
	if _, err := svc.Perform(context.Background(), sess, provider.OpenStack, ActionCreate, provider.CreateParams{}); err != nil {
		t.Fatalf("Perform: %v", err)
	}

	if len(trail.appends) != 2 {
		t.Fatalf("appends = %d, want 2", len(trail.appends))
	}
	if got := trail.appends[0]; got != (appendCall{"alice", "Create Instance", "AWS"}) {
		t.Errorf("append[0] = %+v", got)
	}
	if got := trail.appends[1]; got != (appendCall{"alice", "Create VM", "OpenStack"}) {
		t.Errorf("append[1] = %+v", got)
	}
}

func TestPerform_AuditFailureFailsCreate(t *testing.T) {
	trail := &fakeTrail{appendErr: errors.New("disk full")}
	svc := NewService(&fakeResolver{caps: map[provider.Name]provider.Capability{
		provider.AWS: okCapability("Instance"),
	}}, trail, time.Second, nil)

	res, err := svc.Perform(context.Background(), authedSession(t, "alice"), provider.AWS, ActionCreate, provider.CreateParams{})
	if err == nil {
		t.Fatal("create must fail when the audit append fails")
	}
	if res != nil {
		t.Error("no result on a failed create")
	}
}

func TestPerform_ListIsNotAudited(t *testing.T) {
	trail := &fakeTrail{}
	svc := NewService(&fakeResolver{caps: map[provider.Name]provider.Capability{
		provider.GCP: okCapability("Instance"),
	}}, trail, time.Second, nil)

	res, err := svc.Perform(context.Background(), authedSession(t, "alice"), provider.GCP, ActionList, provider.CreateParams{})
	if err != nil {
		t.Fatalf("Perform: %v", err)
	}
	if len(res.Listed) != 1 {
		t.Errorf("listed = %+v", res.Listed)
	}
	if len(trail.appends) != 0 {
		t.Error("list calls must leave no audit trail")
	}
}

func TestPerform_SlowBackendTimesOut(t *testing.T) {
	slow := &fakeCapability{
		noun: "Instance",
		createFn: func(ctx context.Context, params provider.CreateParams) (*provider.CreateResult, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	trail := &fakeTrail{}
	svc := NewService(&fakeResolver{caps: map[provider.Name]provider.Capability{
		provider.Azure: slow,
	}}, trail, 20*time.Millisecond, nil)

	_, err := svc.Perform(context.Background(), authedSession(t, "alice"), provider.Azure, ActionCreate, provider.CreateParams{})
	if !errors.Is(err, ErrProviderTimeout) {
		t.Fatalf("err = %v, want ErrProviderTimeout", err)
	}
	if len(trail.appends) != 0 {
		t.Error("a timed-out create must not be audited")
	}
}

func TestPerform_BackendFailure(t *testing.T) {
	failing := &fakeCapability{
		noun: "Instance",
		listFn: func(ctx context.Context) ([]provider.Resource, error) {
			return nil, errors.New("api quota exceeded")
		},
	}
	svc := NewService(&fakeResolver{caps: map[provider.Name]provider.Capability{
		provider.AWS: failing,
	}}, &fakeTrail{}, time.Second, nil)

	_, err := svc.Perform(context.Background(), authedSession(t, "alice"), provider.AWS, ActionList, provider.CreateParams{})
	if !errors.Is(err, ErrProviderFailure) {
		t.Fatalf("err = %v, want ErrProviderFailure", err)
	}
}

func TestPerform_UnsupportedAction(t *testing.T) {
	svc := NewService(&fakeResolver{caps: map[provider.Name]provider.Capability{
		provider.AWS: okCapability("Instance"),
	}}, &fakeTrail{}, time.Second, nil)
	_, err := svc.Perform(context.Background(), authedSession(t, "alice"), provider.AWS, Action("delete"), provider.CreateParams{})
	if !errors.Is(err, ErrProviderFailure) {
		t.Fatalf("err = %v, want ErrProviderFailure", err)
	}
}
