package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"lab-service/internal/domain/notification"
	"lab-service/internal/domain/principal"
	"lab-service/internal/domain/project"
	"lab-service/internal/domain/result"
	"lab-service/internal/repository"
	"lab-service/internal/repository/memory"

	"github.com/google/uuid"
)

type fakeBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
	putErr  error
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{objects: map[string][]byte{}}
}

func (b *fakeBlobs) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	if b.putErr != nil {
		return "", b.putErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = data
	return fmt.Sprintf("https://results.example/%s", key), nil
}

func (b *fakeBlobs) Delete(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, key)
	b.deleted = append(b.deleted, key)
	return nil
}

type sent struct {
	userID uuid.UUID
	role   principal.Role
	kind   notification.Type
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sent
}

func (n *fakeNotifier) Notify(ctx context.Context, userID uuid.UUID, kind notification.Type, payload map[string]string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sent{userID: userID, kind: kind})
}

func (n *fakeNotifier) NotifyRole(ctx context.Context, role principal.Role, kind notification.Type, payload map[string]string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sent{role: role, kind: kind})
}

func (n *fakeNotifier) reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = nil
}

func (n *fakeNotifier) all() []sent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sent(nil), n.sent...)
}

type fakeRecorder struct {
	mu          sync.Mutex
	transitions []string
	decisions   []string
}

func (r *fakeRecorder) ObserveTransition(from, to string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transitions = append(r.transitions, from+">"+to)
}

func (r *fakeRecorder) ObserveDecision(role, decision string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decisions = append(r.decisions, role+":"+decision)
}

var errConnectionReset = errors.New("connection reset by peer")

// faultyStore fails selected writes inside transactions.
type faultyStore struct {
	*memory.Store
	failTransition bool
	failResult     bool
}

func (s *faultyStore) InTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	return s.Store.InTx(ctx, func(tx repository.Tx) error {
		return fn(faultyTx{Tx: tx, s: s})
	})
}

type faultyTx struct {
	repository.Tx
	s *faultyStore
}

func (t faultyTx) Projects() repository.ProjectRepository {
	return faultyProjects{ProjectRepository: t.Tx.Projects(), fail: t.s.failTransition}
}

func (t faultyTx) Results() repository.ResultRepository {
	return faultyResults{ResultRepository: t.Tx.Results(), fail: t.s.failResult}
}

type faultyProjects struct {
	repository.ProjectRepository
	fail bool
}

func (p faultyProjects) TransitionStatus(ctx context.Context, input project.TransitionInput) (*project.Project, error) {
	if p.fail {
		return nil, errConnectionReset
	}
	return p.ProjectRepository.TransitionStatus(ctx, input)
}

type faultyResults struct {
	repository.ResultRepository
	fail bool
}

func (r faultyResults) Create(ctx context.Context, input result.CreateResultInput) (*result.ProjectResult, error) {
	if r.fail {
		return nil, errConnectionReset
	}
	return r.ResultRepository.Create(ctx, input)
}
