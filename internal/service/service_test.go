package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/makolaonline/whatsapp-router/internal/domain"
	"github.com/makolaonline/whatsapp-router/internal/repository"
	"github.com/makolaonline/whatsapp-router/policy"
	"github.com/makolaonline/whatsapp-router/tests/helpers"
)

const (
	sellerPhone = "233201111111"
	riderPhone  = "233202222222"
	rider2Phone = "233203333333"
	jobID       = "1a2b3c4d-0000-4000-8000-000000000001"
)

type sentMessage struct {
	to   string
	text string
}

type fakeMessenger struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (m *fakeMessenger) Send(_ context.Context, to, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMessage{to: to, text: text})
	return nil
}

func (m *fakeMessenger) last(t *testing.T) sentMessage {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent, "no reply sent")
	return m.sent[len(m.sent)-1]
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []domain.JobEvent
}

func (n *recordingNotifier) Notify(_ context.Context, event domain.JobEvent, _ *domain.DeliveryJob) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

type testEnv struct {
	svc       *Service
	store     *repository.SQLiteStore
	messenger *fakeMessenger
	notifier  *recordingNotifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := helpers.NewTestSQLiteStore(t)
	engine, err := policy.NewEngine(context.Background(), policy.DefaultPolicy)
	require.NoError(t, err)

	messenger := &fakeMessenger{}
	notifier := &recordingNotifier{}
	return &testEnv{
		svc:       New(store, messenger, engine, nil, notifier),
		store:     store,
		messenger: messenger,
		notifier:  notifier,
	}
}

func (e *testEnv) send(t *testing.T, from, text string, images ...string) {
	t.Helper()
	msg := domain.Message{ID: "wamid." + from, SenderID: from, Type: domain.MessageTypeText, Text: text, ImageRefs: images}
	require.NoError(t, e.svc.ProcessMessage(context.Background(), msg))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		text string
		want domain.Route
	}{
		{"I want to SELL my phone", domain.RouteProductUpload},
		{"new product: rice", domain.RouteProductUpload},
		{"sell this and show me jobs", domain.RouteProductUpload},
		{"Product delivery please", domain.RouteProductUpload},
		{"jobs", domain.RouteRiderCommand},
		{"any delivery today?", domain.RouteRiderCommand},
		{"hello", domain.RouteWelcome},
		{"", domain.RouteWelcome},
		{"status", domain.RouteWelcome},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.text))
		})
	}
}

func TestProcessMessageWelcome(t *testing.T) {
	env := newTestEnv(t)

	env.send(t, "233209999999", "hi there")

	last := env.messenger.last(t)
	assert.Equal(t, "233209999999", last.to)
	assert.Equal(t, welcomeReply, last.text)

	session, err := env.store.GetOrCreateSession(context.Background(), "233209999999")
	require.NoError(t, err)
	assert.Equal(t, "233209999999", session.SenderID)
}

func TestProcessMessageRequiresSender(t *testing.T) {
	env := newTestEnv(t)
	err := env.svc.ProcessMessage(context.Background(), domain.Message{Text: "hi"})
	assert.ErrorIs(t, err, ErrMissingSender)
}

func TestProcessMessageSendFailure(t *testing.T) {
	env := newTestEnv(t)
	env.messenger.err = errors.New("graph api down")

	err := env.svc.ProcessMessage(context.Background(), domain.Message{SenderID: "233209999999", Text: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "graph api down")
}

func TestProductUploadUnregisteredSeller(t *testing.T) {
	env := newTestEnv(t)

	env.send(t, sellerPhone, "sell shoes ghs20")

	assert.Equal(t, sellerNotRegisteredReply, env.messenger.last(t).text)
	assert.Len(t, env.messenger.sent, 1)
	drafts, err := env.store.ListProductDrafts(context.Background(), "", "", 0)
	require.NoError(t, err)
	assert.Empty(t, drafts)
}

func TestProductUploadCreatesDraft(t *testing.T) {
	env := newTestEnv(t)
	helpers.SeedSeller(t, env.store, "seller-1", sellerPhone)

	env.send(t, sellerPhone, "I'm selling shoes for ghs20", "media-1")

	reply := env.messenger.last(t).text
	assert.Contains(t, reply, "✅ Product received!")
	assert.Contains(t, reply, "📝 Title: I'm selling shoes for ghs20")
	assert.Contains(t, reply, "💰 Price: GHS 20")
	assert.Contains(t, reply, "📋 Description: Not specified")

	drafts, err := env.svc.ListUploads(context.Background(), "seller-1", domain.UploadStatusPending, 10)
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, 20.0, drafts[0].ParsedPrice)
	assert.Equal(t, domain.DefaultCategory, drafts[0].ParsedCategory)
	assert.Equal(t, []string{"media-1"}, drafts[0].ImageRefs)
}

func TestProductUploadLabeledFields(t *testing.T) {
	env := newTestEnv(t)
	helpers.SeedSeller(t, env.store, "seller-1", sellerPhone)

	env.send(t, sellerPhone, "Sell product\nTitle: Kente Cloth\nPrice: GHS 45.50\nCategory: Fashion")

	reply := env.messenger.last(t).text
	assert.Contains(t, reply, "📝 Title: Kente Cloth")
	assert.Contains(t, reply, "💰 Price: GHS 45.5")
}

type failingDraftStore struct {
	repository.Store
}

func (failingDraftStore) InsertProductDraft(context.Context, *domain.ProductUploadDraft) error {
	return errors.New("disk full")
}

func TestProductUploadStoreFailure(t *testing.T) {
	env := newTestEnv(t)
	helpers.SeedSeller(t, env.store, "seller-1", sellerPhone)
	svc := New(failingDraftStore{env.store}, env.messenger, nil, nil)

	err := svc.ProcessMessage(context.Background(), domain.Message{SenderID: sellerPhone, Text: "sell rice"})
	require.NoError(t, err)
	assert.Equal(t, uploadFailedReply, env.messenger.last(t).text)
}

func TestRiderUnregistered(t *testing.T) {
	env := newTestEnv(t)

	env.send(t, riderPhone, "jobs")

	assert.Equal(t, riderNotRegisteredReply, env.messenger.last(t).text)
}

func TestRiderInactive(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.store.UpsertRider(context.Background(), &domain.Rider{ID: "r1", WhatsApp: riderPhone, Status: domain.RiderStatusSuspended}))

	env.send(t, riderPhone, "jobs")

	assert.Equal(t, riderInactiveReply, env.messenger.last(t).text)
}

func TestRiderListJobs(t *testing.T) {
	env := newTestEnv(t)
	helpers.SeedRider(t, env.store, "r1", riderPhone)

	env.send(t, riderPhone, "jobs")
	assert.Equal(t, noJobsReply, env.messenger.last(t).text)

	for i := 0; i < 6; i++ {
		helpers.SeedJob(t, env.store, strings.Repeat(string(rune('a'+i)), 8)+"-0000-4000-8000-000000000000", 10)
	}
	env.send(t, riderPhone, "Any job available?")

	reply := env.messenger.last(t).text
	assert.True(t, strings.HasPrefix(reply, "📦 *Available Jobs:*"))
	assert.Equal(t, 5, strings.Count(reply, "🆔 Job:"))
	assert.Contains(t, reply, "🆔 Job: aaaaaaaa\n")
	assert.Contains(t, reply, "💰 Fee: GHS 10")
	assert.Contains(t, reply, "Example: accept job12345678")
}

func TestRiderAcceptFlow(t *testing.T) {
	env := newTestEnv(t)
	helpers.SeedRider(t, env.store, "r1", riderPhone)
	helpers.SeedRider(t, env.store, "r2", rider2Phone)
	helpers.SeedJob(t, env.store, jobID, 25)

	env.send(t, riderPhone, "accept job")
	assert.Equal(t, acceptUsageReply, env.messenger.last(t).text)

	env.send(t, riderPhone, "Accept JOB1A2B3C4D")
	reply := env.messenger.last(t).text
	assert.Contains(t, reply, "✅ Job accepted! 🎉")
	assert.Contains(t, reply, "📦 Job: 1a2b3c4d")
	assert.Contains(t, reply, "Reply 'picked up job1a2b3c4d' when collected")

	job, err := env.store.GetJob(context.Background(), jobID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusAccepted, job.Status)
	require.NotNil(t, job.RiderID)
	assert.Equal(t, "r1", *job.RiderID)

	env.send(t, rider2Phone, "accept job1a2b3c4d")
	assert.Equal(t, jobTakenReply, env.messenger.last(t).text)

	env.send(t, rider2Phone, "accept jobffffffff")
	assert.Equal(t, jobTakenReply, env.messenger.last(t).text)

	job, err = env.store.GetJob(context.Background(), jobID)
	require.NoError(t, err)
	assert.Equal(t, "r1", *job.RiderID)
}

func TestRiderAmbiguousPrefix(t *testing.T) {
	env := newTestEnv(t)
	helpers.SeedRider(t, env.store, "r1", riderPhone)
	helpers.SeedJob(t, env.store, "abcd1234-0000-4000-8000-000000000001", 10)
	helpers.SeedJob(t, env.store, "abcd5678-0000-4000-8000-000000000002", 10)

	env.send(t, riderPhone, "accept jobabcd")

	assert.Equal(t, ambiguousJobReply("abcd"), env.messenger.last(t).text)
}

func TestRiderDeliveryLifecycle(t *testing.T) {
	env := newTestEnv(t)
	helpers.SeedRider(t, env.store, "r1", riderPhone)
	helpers.SeedRider(t, env.store, "r2", rider2Phone)
	helpers.SeedJob(t, env.store, jobID, 25)
	ctx := context.Background()

	env.send(t, riderPhone, "job status")
	assert.Equal(t, noActiveJobsReply, env.messenger.last(t).text)

	env.send(t, riderPhone, "accept job1a2b3c4d")

	env.send(t, riderPhone, "job status")
	status := env.messenger.last(t).text
	assert.Contains(t, status, "📊 *Your Active Jobs:*")
	assert.Contains(t, status, "📋 Status: ACCEPTED")

	env.send(t, rider2Phone, "picked up job1a2b3c4d")
	assert.Contains(t, env.messenger.last(t).text, "job is assigned to another rider")

	env.send(t, riderPhone, "picked up job")
	assert.Equal(t, pickupUsageReply, env.messenger.last(t).text)

	env.send(t, riderPhone, "picked up job1a2b3c4d")
	assert.Contains(t, env.messenger.last(t).text, "📦 Job 1a2b3c4d picked up!")

	env.send(t, riderPhone, "delivered job1a2b3c4d")
	assert.Equal(t, proofRequiredReply("1a2b3c4d"), env.messenger.last(t).text)

	env.send(t, riderPhone, "delivered job1a2b3c4d otp 4821")
	assert.Contains(t, env.messenger.last(t).text, "🎯 Job 1a2b3c4d delivered!")

	job, err := env.store.GetJob(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusDelivered, job.Status)
	assert.Equal(t, "4821", job.ProofOTP)

	job, err = env.svc.CompleteJob(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusCompleted, job.Status)
	assert.NotNil(t, job.CompletedAt)

	events, err := env.svc.GetJobEvents(ctx, jobID, 0)
	require.NoError(t, err)
	var types []domain.EventType
	for _, e := range events {
		types = append(types, e.Type)
	}
	assert.Equal(t, []domain.EventType{
		domain.EventTypeJobAccepted,
		domain.EventTypeJobPickedUp,
		domain.EventTypeJobDelivered,
		domain.EventTypeJobCompleted,
	}, types)
	assert.Len(t, env.notifier.events, 4)

	logs, err := env.svc.ListCommandLogs(ctx, "r1", 50)
	require.NoError(t, err)
	assert.Len(t, logs, 7)
}

func TestRiderDeliveredWithPhoto(t *testing.T) {
	env := newTestEnv(t)
	helpers.SeedRider(t, env.store, "r1", riderPhone)
	helpers.SeedJob(t, env.store, jobID, 25)
	ctx := context.Background()

	_, err := env.svc.AcceptJob(ctx, jobID, "r1")
	require.NoError(t, err)
	_, err = env.svc.PickupJob(ctx, jobID, "r1")
	require.NoError(t, err)

	env.send(t, riderPhone, "Delivered job1a2b3c4d", "media-proof")

	job, err := env.store.GetJob(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusDelivered, job.Status)
	assert.Equal(t, "media-proof", job.ProofPhoto)
}

func TestRiderHelp(t *testing.T) {
	env := newTestEnv(t)
	helpers.SeedRider(t, env.store, "r1", riderPhone)

	env.send(t, riderPhone, "hello job")

	assert.Equal(t, riderHelpReply, env.messenger.last(t).text)
}

func TestAcceptJobConcurrent(t *testing.T) {
	env := newTestEnv(t)
	helpers.SeedJob(t, env.store, jobID, 25)
	ctx := context.Background()

	riders := []string{"rider-a", "rider-b"}
	errs := make([]error, len(riders))
	var wg sync.WaitGroup
	for i, r := range riders {
		wg.Add(1)
		go func(i int, r string) {
			defer wg.Done()
			_, errs[i] = env.svc.AcceptJob(ctx, jobID, r)
		}(i, r)
	}
	wg.Wait()

	winners := 0
	winner := ""
	for i, err := range errs {
		if err == nil {
			winners++
			winner = riders[i]
			continue
		}
		assert.ErrorIs(t, err, ErrJobConflict)
	}
	require.Equal(t, 1, winners)

	job, err := env.svc.GetJob(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusAccepted, job.Status)
	require.NotNil(t, job.RiderID)
	assert.Equal(t, winner, *job.RiderID)
}

func TestForwardOnlyTransitions(t *testing.T) {
	env := newTestEnv(t)
	helpers.SeedJob(t, env.store, jobID, 25)
	ctx := context.Background()

	_, err := env.svc.PickupJob(ctx, jobID, "r1")
	assert.ErrorIs(t, err, ErrTransitionDenied)

	_, err = env.svc.AcceptJob(ctx, jobID, "r1")
	require.NoError(t, err)

	_, err = env.svc.DeliverJob(ctx, jobID, "r1", domain.DeliveryProof{OTP: "1234"})
	assert.ErrorIs(t, err, ErrTransitionDenied)

	_, err = env.svc.CompleteJob(ctx, jobID)
	assert.ErrorIs(t, err, ErrTransitionDenied)

	_, err = env.svc.DeliverJob(ctx, jobID, "r1", domain.DeliveryProof{})
	assert.ErrorIs(t, err, ErrProofRequired)

	job, err := env.svc.GetJob(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusAccepted, job.Status)
}

func TestTransitionsWithoutPolicyRelyOnStore(t *testing.T) {
	env := newTestEnv(t)
	helpers.SeedJob(t, env.store, jobID, 25)
	svc := New(env.store, env.messenger, nil, nil)
	ctx := context.Background()

	_, err := svc.PickupJob(ctx, jobID, "r1")
	assert.ErrorIs(t, err, ErrJobConflict)

	_, err = svc.AcceptJob(ctx, jobID, "r1")
	require.NoError(t, err)
	_, err = svc.AcceptJob(ctx, jobID, "r2")
	assert.ErrorIs(t, err, ErrJobConflict)
}

func TestRiderActionsNeedRider(t *testing.T) {
	env := newTestEnv(t)
	helpers.SeedJob(t, env.store, jobID, 25)
	ctx := context.Background()

	_, err := env.svc.AcceptJob(ctx, jobID, "")
	assert.ErrorIs(t, err, ErrRiderRequired)
	_, err = env.svc.AcceptJob(ctx, jobID, "   ")
	assert.ErrorIs(t, err, ErrRiderRequired)

	job, err := env.svc.GetJob(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusRequested, job.Status)
	assert.Nil(t, job.RiderID)
	assert.Zero(t, job.AcceptAttempts)

	// Without a policy the store still binds pickup and delivery to the rider.
	svc := New(env.store, env.messenger, nil, nil)
	_, err = svc.AcceptJob(ctx, jobID, "r1")
	require.NoError(t, err)

	_, err = svc.PickupJob(ctx, jobID, "")
	assert.ErrorIs(t, err, ErrRiderRequired)
	_, err = svc.PickupJob(ctx, jobID, "r2")
	assert.ErrorIs(t, err, ErrJobConflict)
	_, err = svc.DeliverJob(ctx, jobID, "", domain.DeliveryProof{OTP: "1234"})
	assert.ErrorIs(t, err, ErrRiderRequired)

	job, err = svc.GetJob(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusAccepted, job.Status)
	require.NotNil(t, job.RiderID)
	assert.Equal(t, "r1", *job.RiderID)

	_, err = svc.PickupJob(ctx, jobID, "r1")
	require.NoError(t, err)
	_, err = svc.DeliverJob(ctx, jobID, " ", domain.DeliveryProof{OTP: "1234"})
	assert.ErrorIs(t, err, ErrRiderRequired)

	job, err = svc.GetJob(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusPickedUp, job.Status)
	assert.Nil(t, job.DeliveredAt)
}

func TestActiveRider(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	helpers.SeedRider(t, env.store, "r1", riderPhone)
	require.NoError(t, env.store.UpsertRider(ctx, &domain.Rider{ID: "r2", WhatsApp: rider2Phone, Status: domain.RiderStatusPending}))

	rider, err := env.svc.ActiveRider(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "r1", rider.ID)

	_, err = env.svc.ActiveRider(ctx, "r2")
	assert.ErrorIs(t, err, ErrRiderInactive)
	_, err = env.svc.ActiveRider(ctx, "r3")
	assert.ErrorIs(t, err, ErrRiderNotFound)
	_, err = env.svc.ActiveRider(ctx, "")
	assert.ErrorIs(t, err, ErrRiderRequired)
}

func TestUnknownJob(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.AcceptJob(ctx, "missing", "r1")
	assert.ErrorIs(t, err, ErrJobNotFound)

	_, err = env.svc.ResolveJob(ctx, "")
	assert.ErrorIs(t, err, ErrJobNotFound)

	_, err = env.svc.GetJobEvents(ctx, "missing", 0)
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestCreateJob(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.CreateJob(ctx, CreateJobRequest{PickupLocation: "Makola"})
	assert.ErrorIs(t, err, ErrInvalidJob)

	job, err := env.svc.CreateJob(ctx, CreateJobRequest{
		SellerID:        "seller-1",
		PickupLocation:  " Makola Market ",
		DropoffLocation: "Osu",
		QuotedFee:       18.5,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusRequested, job.Status)
	assert.Equal(t, "Makola Market", job.PickupLocation)
	assert.Nil(t, job.RiderID)

	resolved, err := env.svc.ResolveJob(ctx, job.ShortID())
	require.NoError(t, err)
	assert.Equal(t, job.ID, resolved.ID)

	require.Len(t, env.notifier.events, 1)
	assert.Equal(t, domain.EventTypeJobCreated, env.notifier.events[0].Type)
}
