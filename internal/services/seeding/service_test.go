package seeding

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/effectivity"
	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/kafka"
	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/models"
	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/redis"
)

const document = `LIST OF EFFECTIVITY CODES
*NO CODE
*A8
: S/N 31700 and subsequent
: S/N 41501 and subsequent
*B1
Deleted
: S/N 31005 thru 31200
*1J Helicopters that have P/N 3G6220V00131 installed
: S/N 31005 thru 31200
: S/N 41001 thru TBD
*C4
Helicopters with the enhanced main gearbox
- S/N TBD thru 31999
- S/N 31007
*A8
: S/N 11111 thru 11112
*D2
Pending engineering review
`

type memoryRepository struct {
	mu        sync.Mutex
	revisions []*models.Revision
	codes     map[int64][]models.EffectivityCode
	ranges    map[int64][]models.SerialRange
	replaces  int
	failNext  error
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		codes:  map[int64][]models.EffectivityCode{},
		ranges: map[int64][]models.SerialRange{},
	}
}

func (m *memoryRepository) GetCurrentRevision(_ context.Context) (*models.Revision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.revisions {
		if r.IsCurrent {
			cp := *r
			return &cp, nil
		}
	}
	return nil, httperror.NewHTTPError(http.StatusNotFound, "no effectivity revision has been seeded")
}

func (m *memoryRepository) ListRevisions(_ context.Context) ([]*models.Revision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.revisions, nil
}

func (m *memoryRepository) ReplaceRevision(_ context.Context, rev *models.Revision, codes []models.EffectivityCode, ranges []models.SerialRange) (*models.Revision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replaces++
	if m.failNext != nil {
		err := m.failNext
		m.failNext = nil
		return nil, err
	}

	kept := m.revisions[:0]
	for _, r := range m.revisions {
		if r.Revision != rev.Revision {
			kept = append(kept, r)
		}
	}
	m.revisions = kept
	for _, r := range m.revisions {
		r.IsCurrent = false
	}

	saved := *rev
	saved.ID = int64(m.replaces)
	saved.IsCurrent = true
	m.revisions = append(m.revisions, &saved)
	m.codes[saved.ID] = codes
	m.ranges[saved.ID] = ranges
	cp := saved
	return &cp, nil
}

func (m *memoryRepository) ActivateRevision(_ context.Context, id int64) (*models.Revision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var found *models.Revision
	for _, r := range m.revisions {
		if r.ID == id {
			found = r
		}
	}
	if found == nil {
		return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "revision %d not found", id)
	}
	for _, r := range m.revisions {
		r.IsCurrent = r.ID == id
	}
	cp := *found
	return &cp, nil
}

type recordingPublisher struct {
	mu          sync.Mutex
	revisions   []*kafka.RevisionEvent
	dataQuality []*kafka.DataQualityEvent
	err         error
}

func (p *recordingPublisher) PublishRevisionEvent(_ context.Context, evt *kafka.RevisionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.revisions = append(p.revisions, evt)
	return p.err
}

func (p *recordingPublisher) PublishDataQuality(_ context.Context, events []*kafka.DataQualityEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dataQuality = append(p.dataQuality, events...)
	return p.err
}

func newTestService(repo EffectivityRepository, publisher EventPublisher) *Service {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	return NewService(logger, repo, nil, publisher, time.Minute)
}

func TestBuildPlan(t *testing.T) {
	doc, err := effectivity.ParseString(document)
	require.NoError(t, err)

	plan := BuildPlan(doc)
	assert.Equal(t, 6, plan.ExpectedCodes)
	assert.Equal(t, 7, plan.ExpectedRanges)
	assert.Len(t, plan.Codes, 6)

	for _, r := range plan.Ranges {
		assert.NotEqual(t, "B1", r.Code, "deleted codes never own ranges")
		assert.LessOrEqual(t, r.SerialStart, r.SerialEnd)
	}

	kinds := map[string]string{}
	for _, w := range plan.Warnings {
		kinds[w.Code] = w.Kind
	}
	assert.Equal(t, models.WarningEmptyCode, kinds["D2"])
	assert.Equal(t, models.WarningDuplicateCode, kinds["A8"])
}

func TestBuildPlan_DeletedFirstOccurrenceDropsLaterRanges(t *testing.T) {
	doc, err := effectivity.ParseString("*Z9\nDeleted\n*Z9\n: S/N 100 thru 200\n")
	require.NoError(t, err)

	plan := BuildPlan(doc)
	require.Len(t, plan.Codes, 1)
	assert.True(t, plan.Codes[0].IsDeleted)
	assert.Empty(t, plan.Ranges)
}

func TestSeed(t *testing.T) {
	repo := newMemoryRepository()
	publisher := &recordingPublisher{}
	svc := newTestService(repo, publisher)

	result, err := svc.Seed(context.Background(), models.SeedRequest{
		Revision:       "Rev 12",
		SourceDocument: "effectivity.txt",
		Document:       document,
	})
	require.NoError(t, err)
	assert.False(t, result.Skipped)
	assert.Equal(t, 6, result.ExpectedCodes)
	assert.Equal(t, 7, result.ExpectedRanges)
	require.NotNil(t, result.Revision)
	assert.Equal(t, 6, result.Revision.CodeCount)
	assert.Equal(t, 7, result.Revision.RangeCount)
	assert.Equal(t, 2, result.Revision.WarningCount)
	assert.Len(t, repo.ranges[result.Revision.ID], 7)

	require.Len(t, publisher.revisions, 1)
	assert.Equal(t, kafka.EventRevisionSeeded, publisher.revisions[0].Type)
	assert.Len(t, publisher.dataQuality, 2)
}

func TestSeed_IdempotentReseed(t *testing.T) {
	repo := newMemoryRepository()
	svc := newTestService(repo, nil)
	req := models.SeedRequest{Revision: "Rev 12", Document: document}

	first, err := svc.Seed(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.Seed(context.Background(), req)
	require.NoError(t, err)

	assert.False(t, first.Skipped)
	assert.True(t, second.Skipped)
	assert.Equal(t, first.Revision.ID, second.Revision.ID)
	assert.Equal(t, 1, repo.replaces)
}

func TestSeed_ReseedsWhenExpectedCountsGrow(t *testing.T) {
	repo := newMemoryRepository()
	svc := newTestService(repo, nil)

	_, err := svc.Seed(context.Background(), models.SeedRequest{Revision: "Rev 12", Document: document})
	require.NoError(t, err)

	result, err := svc.Seed(context.Background(), models.SeedRequest{Revision: "Rev 12", Document: document, ExpectedRanges: 9})
	require.NoError(t, err)
	assert.False(t, result.Skipped)
	assert.Equal(t, 9, result.ExpectedRanges)
	assert.Equal(t, 2, repo.replaces)

	revisions, err := svc.ListRevisions(context.Background())
	require.NoError(t, err)
	assert.Len(t, revisions, 1)
}

func TestSeed_NewLabelReplacesCurrent(t *testing.T) {
	repo := newMemoryRepository()
	svc := newTestService(repo, nil)

	_, err := svc.Seed(context.Background(), models.SeedRequest{Revision: "Rev 12", Document: document})
	require.NoError(t, err)
	result, err := svc.Seed(context.Background(), models.SeedRequest{Revision: "Rev 13", Document: document})
	require.NoError(t, err)
	assert.False(t, result.Skipped)

	current, err := repo.GetCurrentRevision(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Rev 13", current.Revision)
}

func TestSeed_FailureKeepsPreviousRevision(t *testing.T) {
	repo := newMemoryRepository()
	svc := newTestService(repo, nil)

	_, err := svc.Seed(context.Background(), models.SeedRequest{Revision: "Rev 12", Document: document})
	require.NoError(t, err)

	repo.failNext = httperror.NewHTTPError(http.StatusInternalServerError, "failed to insert serial ranges")
	_, err = svc.Seed(context.Background(), models.SeedRequest{Revision: "Rev 13", Document: document})
	require.Error(t, err)

	current, err := repo.GetCurrentRevision(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Rev 12", current.Revision)
}

func TestSeed_PublishFailureIsBestEffort(t *testing.T) {
	repo := newMemoryRepository()
	svc := newTestService(repo, &recordingPublisher{err: errors.New("broker unavailable")})

	result, err := svc.Seed(context.Background(), models.SeedRequest{Revision: "Rev 12", Document: document})
	require.NoError(t, err)
	assert.NotNil(t, result.Revision)
}

func TestSeed_InvalidRequests(t *testing.T) {
	svc := newTestService(newMemoryRepository(), nil)

	tests := []struct {
		name string
		req  models.SeedRequest
	}{
		{name: "missing revision", req: models.SeedRequest{Document: document}},
		{name: "no codes", req: models.SeedRequest{Revision: "Rev 1", Document: "just a preamble\n"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Seed(context.Background(), tt.req)
			require.Error(t, err)
			assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
		})
	}
}

func TestSeed_ConcurrentSeedsAreSerialized(t *testing.T) {
	repo := newMemoryRepository()
	svc := newTestService(repo, nil)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Seed(context.Background(), models.SeedRequest{Revision: "Rev 12", Document: document})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, repo.replaces)
}

func TestActivateRevision(t *testing.T) {
	repo := newMemoryRepository()
	publisher := &recordingPublisher{}
	svc := newTestService(repo, publisher)

	first, err := svc.Seed(context.Background(), models.SeedRequest{Revision: "Rev 12", Document: document})
	require.NoError(t, err)
	_, err = svc.Seed(context.Background(), models.SeedRequest{Revision: "Rev 13", Document: document})
	require.NoError(t, err)

	rev, err := svc.ActivateRevision(context.Background(), first.Revision.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rev 12", rev.Revision)

	current, err := repo.GetCurrentRevision(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Rev 12", current.Revision)
	assert.Equal(t, kafka.EventRevisionActivated, publisher.revisions[len(publisher.revisions)-1].Type)

	_, err = svc.ActivateRevision(context.Background(), 99)
	assert.Equal(t, http.StatusNotFound, httperror.GetStatusCode(err))
}

func TestLocalLocker_RespectsContext(t *testing.T) {
	locker := NewLocalLocker()
	release := make(chan struct{})
	held := make(chan struct{})

	go func() {
		_ = locker.WithLock(context.Background(), lockKey, time.Minute, func(ctx context.Context) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := locker.WithLock(ctx, lockKey, time.Minute, func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	close(release)
}

type failingLocker struct{ err error }

func (l failingLocker) WithLock(context.Context, string, time.Duration, func(ctx context.Context) error) error {
	return l.err
}

func TestSeed_LockFailures(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "held elsewhere", err: redis.ErrLockNotAcquired, status: http.StatusConflict},
		{name: "wait timed out", err: context.DeadlineExceeded, status: http.StatusConflict},
		{name: "backend down", err: errors.New("dial tcp: connection refused"), status: http.StatusServiceUnavailable},
		{name: "repository error", err: httperror.NewHTTPError(http.StatusInternalServerError, "boom"), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
			svc := NewService(logger, newMemoryRepository(), failingLocker{err: tt.err}, nil, time.Minute)

			_, err := svc.Seed(context.Background(), models.SeedRequest{Document: document, Revision: "Rev 12"})
			require.Error(t, err)
			assert.Equal(t, tt.status, httperror.GetStatusCode(err))

			_, err = svc.ActivateRevision(context.Background(), 1)
			assert.Equal(t, tt.status, httperror.GetStatusCode(err))
		})
	}
}

func TestNewPreview(t *testing.T) {
	preview, err := NewPreview(document)
	require.NoError(t, err)
	assert.Equal(t, 6, preview.DistinctCodes)
	assert.Equal(t, 7, preview.Ranges)
	assert.Equal(t, []string{"A8"}, preview.Duplicates)
	assert.Len(t, preview.Codes, 7)
}
