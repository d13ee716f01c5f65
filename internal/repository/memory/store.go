// Package memory is a process-local repository.Store. A transaction works
// on a private copy of the state which replaces the shared state on commit.
package memory

import (
	"context"
	"sync"
	"time"

	"lab-service/internal/domain/approval"
	"lab-service/internal/domain/clientrequest"
	"lab-service/internal/domain/notification"
	"lab-service/internal/domain/principal"
	"lab-service/internal/domain/project"
	"lab-service/internal/domain/result"
	"lab-service/internal/repository"

	"github.com/google/uuid"
)

type approvalKey struct {
	projectID uuid.UUID
	role      principal.Role
}

type approvalRow struct {
	approval.Approval
	seq int64
}

type state struct {
	principals     map[uuid.UUID]principal.Principal
	projects       map[uuid.UUID]project.Project
	approvals      map[approvalKey]approvalRow
	results        []result.ProjectResult
	clientRequests map[uuid.UUID]clientrequest.ClientRequest
	notifications  []notification.Notification
	seq            int64
	last           time.Time
}

func newState() *state {
	return &state{
		principals:     map[uuid.UUID]principal.Principal{},
		projects:       map[uuid.UUID]project.Project{},
		approvals:      map[approvalKey]approvalRow{},
		clientRequests: map[uuid.UUID]clientrequest.ClientRequest{},
	}
}

func (s *state) clone() *state {
	c := &state{
		principals:     make(map[uuid.UUID]principal.Principal, len(s.principals)),
		projects:       make(map[uuid.UUID]project.Project, len(s.projects)),
		approvals:      make(map[approvalKey]approvalRow, len(s.approvals)),
		results:        append([]result.ProjectResult(nil), s.results...),
		clientRequests: make(map[uuid.UUID]clientrequest.ClientRequest, len(s.clientRequests)),
		notifications:  make([]notification.Notification, 0, len(s.notifications)),
		seq:            s.seq,
		last:           s.last,
	}
	for k, v := range s.principals {
		c.principals[k] = v
	}
	for k, v := range s.projects {
		c.projects[k] = cloneProject(v)
	}
	for k, v := range s.approvals {
		c.approvals[k] = v
	}
	for k, v := range s.clientRequests {
		c.clientRequests[k] = v
	}
	for _, n := range s.notifications {
		c.notifications = append(c.notifications, cloneNotification(n))
	}
	return c
}

// tick returns a strictly increasing timestamp so that orderings by time
// are stable even when the clock does not advance between writes.
func (s *state) tick(now time.Time) time.Time {
	now = now.UTC()
	if !now.After(s.last) {
		now = s.last.Add(time.Microsecond)
	}
	s.last = now
	s.seq++
	return now
}

// access resolves the state a repository call operates on and holds the
// matching lock until release is called.
type access struct {
	read  func() (*state, func())
	write func() (*state, func())
	clock func() time.Time
}

type repos struct {
	acc access
}

func (r repos) Principals() repository.PrincipalRepository         { return principalRepo(r) }
func (r repos) Projects() repository.ProjectRepository             { return projectRepo(r) }
func (r repos) Approvals() repository.ApprovalRepository           { return approvalRepo(r) }
func (r repos) Results() repository.ResultRepository               { return resultRepo(r) }
func (r repos) ClientRequests() repository.ClientRequestRepository { return clientRequestRepo(r) }
func (r repos) Notifications() repository.NotificationRepository   { return notificationRepo(r) }

type Store struct {
	repos
	mu    sync.RWMutex
	state *state
}

type Option func(*Store)

// WithClock overrides the time source used for stored timestamps.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) {
		s.acc.clock = clock
	}
}

func New(opts ...Option) *Store {
	s := &Store{state: newState()}
	s.acc = access{
		read: func() (*state, func()) {
			s.mu.RLock()
			return s.state, s.mu.RUnlock
		},
		write: func() (*state, func()) {
			s.mu.Lock()
			return s.state, s.mu.Unlock
		},
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// InTx runs fn against a private copy of the state while holding the write
// lock; the copy becomes the shared state only if fn returns nil. fn must
// use tx and not the Store itself.
func (s *Store) InTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.state.clone()
	noop := func() {}
	tx := repos{acc: access{
		read:  func() (*state, func()) { return working, noop },
		write: func() (*state, func()) { return working, noop },
		clock: s.acc.clock,
	}}

	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.state = working
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) Close() {}

var _ repository.Store = (*Store)(nil)

func cloneProject(p project.Project) project.Project {
	p.Content.EquipmentNeeded = append([]string(nil), p.Content.EquipmentNeeded...)
	if p.SubmittedAt != nil {
		t := *p.SubmittedAt
		p.SubmittedAt = &t
	}
	if p.LinkedClientRequestID != nil {
		id := *p.LinkedClientRequestID
		p.LinkedClientRequestID = &id
	}
	return p
}

func cloneNotification(n notification.Notification) notification.Notification {
	payload := make(map[string]string, len(n.Payload))
	for k, v := range n.Payload {
		payload[k] = v
	}
	n.Payload = payload
	return n
}
