package clientsync_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"mythweaver-server/pkg/clientstate"
	"mythweaver-server/pkg/clientsync"
	"mythweaver-server/shared/messaging"
	"mythweaver-server/shared/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOrchestrator — скриптуемый оркестратор для тестов синхронизатора.
type fakeOrchestrator struct {
	state    models.SessionState
	stateErr error

	updateResult CombatantResultFn
	actionResult ActionResultFn
	chatResult   ChatResultFn

	getStateCalls   int
	takeActionCalls int
}

type (
	CombatantResultFn func() (clientsync.CombatantResult, error)
	ActionResultFn    func() (clientsync.ActionResult, error)
	ChatResultFn      func() (clientsync.ChatResult, error)
)

func (f *fakeOrchestrator) GetState(ctx context.Context, sessionID uuid.UUID) (models.SessionState, error) {
	f.getStateCalls++
	return f.state, f.stateErr
}

func (f *fakeOrchestrator) StartCombat(ctx context.Context, sessionID uuid.UUID) (clientsync.CombatStartResult, error) {
	return clientsync.CombatStartResult{}, errors.New("not scripted")
}

func (f *fakeOrchestrator) EndCombat(ctx context.Context, sessionID uuid.UUID) (clientsync.StatusResult, error) {
	return clientsync.StatusResult{Status: "combat_ended"}, nil
}

func (f *fakeOrchestrator) AdvanceTurn(ctx context.Context, sessionID uuid.UUID) (clientsync.TurnResult, error) {
	return clientsync.TurnResult{}, errors.New("not scripted")
}

func (f *fakeOrchestrator) AddCombatant(ctx context.Context, sessionID uuid.UUID, req clientsync.AddCombatantRequest) (clientsync.CombatantResult, error) {
	return clientsync.CombatantResult{}, errors.New("not scripted")
}

func (f *fakeOrchestrator) RemoveCombatant(ctx context.Context, sessionID, combatantID uuid.UUID) (clientsync.StatusResult, error) {
	return clientsync.StatusResult{Status: "removed"}, nil
}

func (f *fakeOrchestrator) UpdateCombatant(ctx context.Context, sessionID, combatantID uuid.UUID, changes models.CombatantUpdate, version int) (clientsync.CombatantResult, error) {
	if f.updateResult == nil {
		return clientsync.CombatantResult{}, errors.New("not scripted")
	}
	return f.updateResult()
}

func (f *fakeOrchestrator) TakeAction(ctx context.Context, sessionID, combatantID uuid.UUID, req clientsync.TakeActionRequest) (clientsync.ActionResult, error) {
	f.takeActionCalls++
	if f.actionResult == nil {
		return clientsync.ActionResult{}, errors.New("not scripted")
	}
	return f.actionResult()
}

func (f *fakeOrchestrator) SendChatMessage(ctx context.Context, sessionID uuid.UUID, body string) (clientsync.ChatResult, error) {
	if f.chatResult == nil {
		return clientsync.ChatResult{}, errors.New("not scripted")
	}
	return f.chatResult()
}

func (f *fakeOrchestrator) RollDice(ctx context.Context, sessionID uuid.UUID, notation string) (clientsync.RollResult, error) {
	return clientsync.RollResult{}, errors.New("not scripted")
}

// fakeEventSource отдает заранее заготовленные события и закрывается.
type fakeEventSource struct {
	events chan messaging.SessionEvent
}

func newFakeEventSource(events ...messaging.SessionEvent) *fakeEventSource {
	ch := make(chan messaging.SessionEvent, len(events))
	for _, ev := range events {
		ch <- ev
	}
	close(ch)
	return &fakeEventSource{events: ch}
}

func (f *fakeEventSource) Events() <-chan messaging.SessionEvent { return f.events }
func (f *fakeEventSource) Close() error                          { return nil }

func newCombatant(name string, initiative, version int) models.Combatant {
	return models.Combatant{
		ID:         uuid.New(),
		Name:       name,
		CurrentHP:  10,
		MaxHP:      10,
		Initiative: initiative,
		IsActive:   true,
		Version:    version,
	}
}

func TestRunAppliesChannelEvents(t *testing.T) {
	sessionID := uuid.New()
	goblin := newCombatant("goblin", 12, 1)

	addEvent, err := messaging.NewSessionEvent(messaging.EventCombatantAdded, sessionID,
		messaging.CombatantAddedPayload{Combatant: goblin})
	require.NoError(t, err)
	foreignEvent, err := messaging.NewSessionEvent(messaging.EventCombatantAdded, uuid.New(),
		messaging.CombatantAddedPayload{Combatant: newCombatant("stray", 5, 1)})
	require.NoError(t, err)

	store := clientstate.NewStore(clientstate.State{})
	sync := clientsync.NewSynchronizer(store, &fakeOrchestrator{}, sessionID)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, sync.Run(ctx, newFakeEventSource(addEvent, foreignEvent)))

	state := store.State()
	require.Len(t, state.Combatants, 1, "event of another session must be ignored")
	assert.Equal(t, "goblin", state.Combatants[0].Name)
}

func TestUpdateCombatantOptimisticThenConfirmed(t *testing.T) {
	sessionID := uuid.New()
	goblin := newCombatant("goblin", 12, 1)

	confirmed := goblin
	hp := 4
	confirmed.CurrentHP = hp
	confirmed.Version = 2

	api := &fakeOrchestrator{
		updateResult: func() (clientsync.CombatantResult, error) {
			return clientsync.CombatantResult{Combatant: confirmed}, nil
		},
	}
	store := clientstate.NewStore(clientstate.State{Combatants: []models.Combatant{goblin}})
	sync := clientsync.NewSynchronizer(store, api, sessionID)

	err := sync.UpdateCombatant(context.Background(), goblin.ID, models.CombatantUpdate{CurrentHP: &hp})
	require.NoError(t, err)

	got, ok := store.State().CombatantByID(goblin.ID)
	require.True(t, ok)
	assert.Equal(t, 4, got.CurrentHP)
	assert.Equal(t, 2, got.Version, "server-confirmed version must be applied")
	assert.Equal(t, 0, api.getStateCalls, "no resync on success")
}

func TestUpdateCombatantConflictResyncs(t *testing.T) {
	sessionID := uuid.New()
	goblin := newCombatant("goblin", 12, 1)

	// Авторитетный снимок: другой клиент уже дожал HP до 2
	authoritative := goblin
	authoritative.CurrentHP = 2
	authoritative.Version = 3

	api := &fakeOrchestrator{
		state: models.SessionState{Combatants: []models.Combatant{authoritative}},
		updateResult: func() (clientsync.CombatantResult, error) {
			return clientsync.CombatantResult{}, &clientsync.APIError{Status: http.StatusConflict, Code: "CONFLICT"}
		},
	}
	store := clientstate.NewStore(clientstate.State{Combatants: []models.Combatant{goblin}})
	sync := clientsync.NewSynchronizer(store, api, sessionID)

	hp := 4
	err := sync.UpdateCombatant(context.Background(), goblin.ID, models.CombatantUpdate{CurrentHP: &hp})
	require.Error(t, err)
	assert.True(t, clientsync.IsConflict(err))
	assert.Equal(t, 1, api.getStateCalls, "rejection must trigger a full-state resync")

	got, ok := store.State().CombatantByID(goblin.ID)
	require.True(t, ok)
	assert.Equal(t, 2, got.CurrentHP, "optimistic value must be replaced by the authoritative one")
	assert.Equal(t, 3, got.Version)
}

func TestTakeActionLocalPreconditionShortCircuits(t *testing.T) {
	sessionID := uuid.New()
	y := newCombatant("Y", 20, 1)
	y.Economy.UsedBonusAction = true

	api := &fakeOrchestrator{}
	store := clientstate.NewStore(clientstate.State{Combatants: []models.Combatant{y}})
	sync := clientsync.NewSynchronizer(store, api, sessionID)

	err := sync.TakeAction(context.Background(), y.ID, clientsync.TakeActionRequest{
		Name:     "Misty Step",
		Category: models.CategoryBonusAction,
	})
	assert.ErrorIs(t, err, models.ErrCategoryUsed)
	assert.Equal(t, 0, api.takeActionCalls, "rejected locally, no request sent")
}

func TestTakeActionAppliesServerEconomyAndDedupesEcho(t *testing.T) {
	sessionID := uuid.New()
	y := newCombatant("Y", 20, 1)

	serverEconomy := models.ActionEconomy{
		UsedBonusAction: true,
		Log:             []models.TakenAction{{ActionID: "a1", Name: "Misty Step", Category: models.CategoryBonusAction}},
	}
	api := &fakeOrchestrator{
		actionResult: func() (clientsync.ActionResult, error) {
			return clientsync.ActionResult{Economy: serverEconomy}, nil
		},
	}
	store := clientstate.NewStore(clientstate.State{Combatants: []models.Combatant{y}})
	sync := clientsync.NewSynchronizer(store, api, sessionID)

	require.NoError(t, sync.TakeAction(context.Background(), y.ID, clientsync.TakeActionRequest{
		Name:     "Misty Step",
		Category: models.CategoryBonusAction,
	}))

	// Эхо того же события по каналу не должно дать двойного эффекта
	echo, err := messaging.NewSessionEvent(messaging.EventActionTaken, sessionID,
		messaging.ActionTakenPayload{CombatantID: y.ID, Economy: serverEconomy})
	require.NoError(t, err)
	store.Apply(echo)

	got, ok := store.State().CombatantByID(y.ID)
	require.True(t, ok)
	assert.True(t, got.Economy.UsedBonusAction)
	assert.Len(t, got.Economy.Log, 1)
}

func TestSendChatMessageThenEchoIsDeduplicated(t *testing.T) {
	sessionID := uuid.New()
	msg := models.ChatMessage{ID: uuid.New(), Body: "hello table"}

	api := &fakeOrchestrator{
		chatResult: func() (clientsync.ChatResult, error) {
			return clientsync.ChatResult{Message: msg}, nil
		},
	}
	store := clientstate.NewStore(clientstate.State{})
	sync := clientsync.NewSynchronizer(store, api, sessionID)

	sent, err := sync.SendChatMessage(context.Background(), "hello table")
	require.NoError(t, err)
	assert.Equal(t, msg.ID, sent.ID)

	echo, err := messaging.NewSessionEvent(messaging.EventChatMessage, sessionID,
		messaging.ChatMessagePayload{Message: msg})
	require.NoError(t, err)
	store.Apply(echo)

	assert.Len(t, store.State().Chat, 1)
}
