package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"mythweaver-server/session-service/internal/service"
	sharedMocks "mythweaver-server/shared/interfaces/mocks"
	"mythweaver-server/shared/dice"
	sharedMessaging "mythweaver-server/shared/messaging"
	"mythweaver-server/shared/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2026, 8, 1, 20, 0, 0, 0, time.UTC)

// fixture собирает сервис со всеми моками для одного теста.
type fixture struct {
	sessions     *sharedMocks.SessionRepository
	combatants   *sharedMocks.CombatantRepository
	participants *sharedMocks.ParticipantRepository
	chat         *sharedMocks.ChatMessageRepository
	rolls        *sharedMocks.DiceRollRepository
	stats        *sharedMocks.CharacterStatsRepository
	templates    *sharedMocks.EnemyTemplateRepository
	memberships  *sharedMocks.WorldMembershipRepository
	publisher    *sharedMocks.EventPublisher

	svc *service.SessionService
}

func newFixture(roller dice.Roller) *fixture {
	f := &fixture{
		sessions:     new(sharedMocks.SessionRepository),
		combatants:   new(sharedMocks.CombatantRepository),
		participants: new(sharedMocks.ParticipantRepository),
		chat:         new(sharedMocks.ChatMessageRepository),
		rolls:        new(sharedMocks.DiceRollRepository),
		stats:        new(sharedMocks.CharacterStatsRepository),
		templates:    new(sharedMocks.EnemyTemplateRepository),
		memberships:  new(sharedMocks.WorldMembershipRepository),
		publisher:    new(sharedMocks.EventPublisher),
	}
	f.svc = service.NewSessionService(service.Deps{
		Sessions:     f.sessions,
		Combatants:   f.combatants,
		Participants: f.participants,
		Chat:         f.chat,
		Rolls:        f.rolls,
		Stats:        f.stats,
		Templates:    f.templates,
		Memberships:  f.memberships,
		Publisher:    f.publisher,
		Roller:       roller,
		Now:          func() time.Time { return fixedNow },
	}, zap.NewNop())
	return f
}

func (f *fixture) expectBroadcastOK() {
	f.publisher.On("PublishSessionEvent", mock.Anything, mock.Anything, mock.Anything).Return(nil)
}

func activeSession(worldID uuid.UUID) *models.GameSession {
	return &models.GameSession{
		ID:       uuid.New(),
		WorldID:  worldID,
		Name:     "Evening game",
		IsActive: true,
	}
}

func combatSession(worldID uuid.UUID, current uuid.UUID, round int) *models.GameSession {
	s := activeSession(worldID)
	s.CombatActive = true
	s.CurrentTurnID = &current
	s.Round = round
	return s
}

func namedCombatant(sessionID uuid.UUID, name string, initiative int) models.Combatant {
	return models.Combatant{
		ID:         uuid.New(),
		SessionID:  sessionID,
		Source:     models.CombatantSource{Kind: models.SourceTemplate, RefID: uuid.New()},
		Name:       name,
		CurrentHP:  10,
		MaxHP:      10,
		ArmorClass: 12,
		Initiative: initiative,
		IsActive:   true,
		Version:    1,
	}
}

func TestStartCombat(t *testing.T) {
	ctx := context.Background()
	worldID := uuid.New()
	gmID := uuid.New()

	t.Run("Orders by initiative and resets first economy", func(t *testing.T) {
		f := newFixture(nil)
		session := activeSession(worldID)

		// Репозиторий возвращает порядок initiative DESC: Y(20), X(15)
		y := namedCombatant(session.ID, "Y", 20)
		y.Economy = models.ActionEconomy{UsedAction: true}
		x := namedCombatant(session.ID, "X", 15)

		f.sessions.On("GetByID", ctx, session.ID).Return(session, nil)
		f.memberships.On("GetRole", ctx, worldID, gmID).Return(models.WorldRoleGameMaster, nil)
		f.combatants.On("ListBySession", ctx, session.ID, true).Return([]models.Combatant{y, x}, nil)

		// Экономика первого хода должна быть свежей
		f.combatants.On("Update", ctx, mock.MatchedBy(func(c *models.Combatant) bool {
			return c.ID == y.ID && !c.Economy.UsedAction && len(c.Economy.Log) == 0
		})).Return(nil).Once()

		f.sessions.On("Update", ctx, mock.MatchedBy(func(s *models.GameSession) bool {
			return s.CombatActive && s.Round == 1 && s.CurrentTurnID != nil && *s.CurrentTurnID == y.ID
		})).Return(nil).Once()
		f.expectBroadcastOK()

		payload, degraded, err := f.svc.StartCombat(ctx, gmID, session.ID)
		require.NoError(t, err)
		assert.False(t, degraded)
		assert.Equal(t, y.ID, payload.CurrentTurnID)
		assert.Equal(t, 1, payload.Round)
		require.Len(t, payload.Combatants, 2)
		assert.Equal(t, "Y", payload.Combatants[0].Name)
		assert.Equal(t, "X", payload.Combatants[1].Name)

		f.combatants.AssertExpectations(t)
		f.sessions.AssertExpectations(t)
	})

	t.Run("Fails without combatants", func(t *testing.T) {
		f := newFixture(nil)
		session := activeSession(worldID)
		f.sessions.On("GetByID", ctx, session.ID).Return(session, nil)
		f.memberships.On("GetRole", ctx, worldID, gmID).Return(models.WorldRoleGameMaster, nil)
		f.combatants.On("ListBySession", ctx, session.ID, true).Return([]models.Combatant{}, nil)

		_, _, err := f.svc.StartCombat(ctx, gmID, session.ID)
		assert.ErrorIs(t, err, models.ErrNoCombatants)
		f.publisher.AssertNotCalled(t, "PublishSessionEvent", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Fails when combat already active", func(t *testing.T) {
		f := newFixture(nil)
		session := combatSession(worldID, uuid.New(), 2)
		f.sessions.On("GetByID", ctx, session.ID).Return(session, nil)
		f.memberships.On("GetRole", ctx, worldID, gmID).Return(models.WorldRoleGameMaster, nil)

		_, _, err := f.svc.StartCombat(ctx, gmID, session.ID)
		assert.ErrorIs(t, err, models.ErrCombatAlreadyActive)
	})

	t.Run("Rejects non-GM caller", func(t *testing.T) {
		f := newFixture(nil)
		playerID := uuid.New()
		session := activeSession(worldID)
		f.sessions.On("GetByID", ctx, session.ID).Return(session, nil)
		f.memberships.On("GetRole", ctx, worldID, playerID).Return(models.WorldRolePlayer, nil)

		_, _, err := f.svc.StartCombat(ctx, playerID, session.ID)
		assert.ErrorIs(t, err, models.ErrForbidden)
	})
}

func TestTakeAction(t *testing.T) {
	ctx := context.Background()
	worldID := uuid.New()
	gmID := uuid.New()

	t.Run("Spends bonus action and synthesizes a combat log line", func(t *testing.T) {
		f := newFixture(nil)
		session := combatSession(worldID, uuid.New(), 1)
		combatant := namedCombatant(session.ID, "Y", 20)

		f.sessions.On("GetByID", ctx, session.ID).Return(session, nil)
		f.memberships.On("GetRole", ctx, worldID, gmID).Return(models.WorldRoleGameMaster, nil)
		f.combatants.On("GetByID", ctx, combatant.ID).Return(&combatant, nil)
		f.combatants.On("Update", ctx, mock.MatchedBy(func(c *models.Combatant) bool {
			return c.Economy.UsedBonusAction && !c.Economy.UsedAction && len(c.Economy.Log) == 1
		})).Return(nil).Once()
		f.chat.On("Append", ctx, mock.MatchedBy(func(m *models.ChatMessage) bool {
			return m.IsSystem && m.Body == "**Y** used **Misty Step**: 30 ft teleport"
		})).Return(nil).Once()
		f.expectBroadcastOK()

		payload, degraded, err := f.svc.TakeAction(ctx, gmID, "The GM", session.ID, combatant.ID, service.ActionRequest{
			Name:     "Misty Step",
			Category: models.CategoryBonusAction,
			Detail:   "30 ft teleport",
		})
		require.NoError(t, err)
		assert.False(t, degraded)
		assert.True(t, payload.Economy.UsedBonusAction)
		assert.Equal(t, "Misty Step", payload.Action.Name)
		assert.Equal(t, fixedNow, payload.Action.TakenAt)

		f.chat.AssertExpectations(t)
		f.combatants.AssertExpectations(t)
	})

	t.Run("Second spend of the same category fails and persists nothing", func(t *testing.T) {
		f := newFixture(nil)
		session := combatSession(worldID, uuid.New(), 1)
		combatant := namedCombatant(session.ID, "Y", 20)
		combatant.Economy.UsedBonusAction = true

		f.sessions.On("GetByID", ctx, session.ID).Return(session, nil)
		f.memberships.On("GetRole", ctx, worldID, gmID).Return(models.WorldRoleGameMaster, nil)
		f.combatants.On("GetByID", ctx, combatant.ID).Return(&combatant, nil)

		_, _, err := f.svc.TakeAction(ctx, gmID, "The GM", session.ID, combatant.ID, service.ActionRequest{
			Name:     "Misty Step",
			Category: models.CategoryBonusAction,
		})
		assert.ErrorIs(t, err, models.ErrCategoryUsed)
		f.combatants.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
		f.chat.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	})

	t.Run("Free action never flips a flag", func(t *testing.T) {
		f := newFixture(nil)
		session := combatSession(worldID, uuid.New(), 1)
		combatant := namedCombatant(session.ID, "Y", 20)
		combatant.Economy = models.ActionEconomy{UsedAction: true, UsedBonusAction: true, UsedReaction: true, UsedMovement: true}

		f.sessions.On("GetByID", ctx, session.ID).Return(session, nil)
		f.memberships.On("GetRole", ctx, worldID, gmID).Return(models.WorldRoleGameMaster, nil)
		f.combatants.On("GetByID", ctx, combatant.ID).Return(&combatant, nil)
		f.combatants.On("Update", ctx, mock.Anything).Return(nil).Once()
		f.chat.On("Append", ctx, mock.Anything).Return(nil).Once()
		f.expectBroadcastOK()

		payload, _, err := f.svc.TakeAction(ctx, gmID, "The GM", session.ID, combatant.ID, service.ActionRequest{
			Name:     "Shout a warning",
			Category: models.CategoryFree,
		})
		require.NoError(t, err)
		assert.True(t, payload.Economy.UsedAction)
		assert.Len(t, payload.Economy.Log, 1)
	})

	t.Run("Player cannot act for someone else's combatant", func(t *testing.T) {
		f := newFixture(nil)
		playerID := uuid.New()
		session := combatSession(worldID, uuid.New(), 1)
		characterID := uuid.New()
		combatant := namedCombatant(session.ID, "Elyndra", 18)
		combatant.Source = models.CombatantSource{Kind: models.SourceCharacter, RefID: characterID}

		f.sessions.On("GetByID", ctx, session.ID).Return(session, nil)
		f.memberships.On("GetRole", ctx, worldID, playerID).Return(models.WorldRolePlayer, nil)
		f.combatants.On("GetByID", ctx, combatant.ID).Return(&combatant, nil)
		f.stats.On("GetStats", ctx, characterID).Return(&models.CharacterStats{
			CharacterID: characterID,
			OwnerID:     uuid.New(), // другой игрок
		}, nil)

		_, _, err := f.svc.TakeAction(ctx, playerID, "Player", session.ID, combatant.ID, service.ActionRequest{
			Name:     "Attack",
			Category: models.CategoryAction,
		})
		assert.ErrorIs(t, err, models.ErrForbidden)
	})

	t.Run("Fails when combat is not active", func(t *testing.T) {
		f := newFixture(nil)
		session := activeSession(worldID)
		f.sessions.On("GetByID", ctx, session.ID).Return(session, nil)

		_, _, err := f.svc.TakeAction(ctx, gmID, "The GM", session.ID, uuid.New(), service.ActionRequest{
			Name:     "Attack",
			Category: models.CategoryAction,
		})
		assert.ErrorIs(t, err, models.ErrCombatNotActive)
	})
}

func TestAdvanceTurn(t *testing.T) {
	ctx := context.Background()
	worldID := uuid.New()
	gmID := uuid.New()

	t.Run("Non-wrapping advance keeps the round", func(t *testing.T) {
		f := newFixture(nil)
		sessionID := uuid.New()
		y := namedCombatant(sessionID, "Y", 20)
		x := namedCombatant(sessionID, "X", 15)
		session := combatSession(worldID, y.ID, 1)
		session.ID = sessionID

		f.sessions.On("GetByID", ctx, sessionID).Return(session, nil)
		f.memberships.On("GetRole", ctx, worldID, gmID).Return(models.WorldRoleGameMaster, nil)
		f.combatants.On("ListBySession", ctx, sessionID, true).Return([]models.Combatant{y, x}, nil)
		f.combatants.On("Update", ctx, mock.MatchedBy(func(c *models.Combatant) bool {
			return c.ID == x.ID && !c.Economy.UsedAction && !c.Economy.UsedBonusAction && len(c.Economy.Log) == 0
		})).Return(nil).Once()
		f.sessions.On("Update", ctx, mock.MatchedBy(func(s *models.GameSession) bool {
			return *s.CurrentTurnID == x.ID && s.Round == 1
		})).Return(nil).Once()
		f.expectBroadcastOK()

		payload, _, err := f.svc.AdvanceTurn(ctx, gmID, sessionID)
		require.NoError(t, err)
		assert.Equal(t, x.ID, payload.CurrentTurnID)
		assert.Equal(t, 1, payload.Round)
	})

	t.Run("Wrapping back to the top increments the round and resets economy", func(t *testing.T) {
		f := newFixture(nil)
		sessionID := uuid.New()
		y := namedCombatant(sessionID, "Y", 20)
		y.Economy = models.ActionEconomy{UsedBonusAction: true, Log: []models.TakenAction{{Name: "Misty Step"}}}
		x := namedCombatant(sessionID, "X", 15)
		session := combatSession(worldID, x.ID, 1)
		session.ID = sessionID

		f.sessions.On("GetByID", ctx, sessionID).Return(session, nil)
		f.memberships.On("GetRole", ctx, worldID, gmID).Return(models.WorldRoleGameMaster, nil)
		f.combatants.On("ListBySession", ctx, sessionID, true).Return([]models.Combatant{y, x}, nil)
		f.combatants.On("Update", ctx, mock.MatchedBy(func(c *models.Combatant) bool {
			return c.ID == y.ID && !c.Economy.UsedBonusAction && len(c.Economy.Log) == 0
		})).Return(nil).Once()
		f.sessions.On("Update", ctx, mock.MatchedBy(func(s *models.GameSession) bool {
			return *s.CurrentTurnID == y.ID && s.Round == 2
		})).Return(nil).Once()
		f.expectBroadcastOK()

		payload, _, err := f.svc.AdvanceTurn(ctx, gmID, sessionID)
		require.NoError(t, err)
		assert.Equal(t, y.ID, payload.CurrentTurnID)
		assert.Equal(t, 2, payload.Round)
	})

	t.Run("Removed current combatant falls back to the top without a round bump", func(t *testing.T) {
		f := newFixture(nil)
		sessionID := uuid.New()
		y := namedCombatant(sessionID, "Y", 20)
		x := namedCombatant(sessionID, "X", 15)
		session := combatSession(worldID, uuid.New(), 3) // текущий уже выведен из боя
		session.ID = sessionID

		f.sessions.On("GetByID", ctx, sessionID).Return(session, nil)
		f.memberships.On("GetRole", ctx, worldID, gmID).Return(models.WorldRoleGameMaster, nil)
		f.combatants.On("ListBySession", ctx, sessionID, true).Return([]models.Combatant{y, x}, nil)
		f.combatants.On("Update", ctx, mock.Anything).Return(nil).Once()
		f.sessions.On("Update", ctx, mock.MatchedBy(func(s *models.GameSession) bool {
			return *s.CurrentTurnID == y.ID && s.Round == 3
		})).Return(nil).Once()
		f.expectBroadcastOK()

		payload, _, err := f.svc.AdvanceTurn(ctx, gmID, sessionID)
		require.NoError(t, err)
		assert.Equal(t, 3, payload.Round)
	})
}

func TestUpdateCombatant(t *testing.T) {
	ctx := context.Background()
	worldID := uuid.New()

	intPtr := func(v int) *int { return &v }

	t.Run("Player cannot touch GM-only fields", func(t *testing.T) {
		f := newFixture(nil)
		playerID := uuid.New()
		session := activeSession(worldID)
		combatant := namedCombatant(session.ID, "Goblin", 12)

		f.sessions.On("GetByID", ctx, session.ID).Return(session, nil)
		f.memberships.On("GetRole", ctx, worldID, playerID).Return(models.WorldRolePlayer, nil)
		f.combatants.On("GetByID", ctx, combatant.ID).Return(&combatant, nil)

		_, _, err := f.svc.UpdateCombatant(ctx, playerID, session.ID, combatant.ID, models.CombatantUpdate{
			Initiative: intPtr(25),
		}, 1)
		assert.ErrorIs(t, err, models.ErrForbidden)
		f.combatants.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("Player edits HP of their own character's combatant", func(t *testing.T) {
		f := newFixture(nil)
		playerID := uuid.New()
		characterID := uuid.New()
		session := activeSession(worldID)
		combatant := namedCombatant(session.ID, "Elyndra", 18)
		combatant.Source = models.CombatantSource{Kind: models.SourceCharacter, RefID: characterID}

		f.sessions.On("GetByID", ctx, session.ID).Return(session, nil)
		f.memberships.On("GetRole", ctx, worldID, playerID).Return(models.WorldRolePlayer, nil)
		f.combatants.On("GetByID", ctx, combatant.ID).Return(&combatant, nil)
		f.stats.On("GetStats", ctx, characterID).Return(&models.CharacterStats{
			CharacterID: characterID,
			OwnerID:     playerID,
		}, nil)
		f.combatants.On("Update", ctx, mock.MatchedBy(func(c *models.Combatant) bool {
			return c.CurrentHP == 5 && c.Version == 1
		})).Run(func(args mock.Arguments) {
			// Репозиторий поднимает версию при успешной записи
			args.Get(1).(*models.Combatant).Version = 2
		}).Return(nil).Once()
		f.expectBroadcastOK()

		updated, _, err := f.svc.UpdateCombatant(ctx, playerID, session.ID, combatant.ID, models.CombatantUpdate{
			CurrentHP: intPtr(5),
		}, 1)
		require.NoError(t, err)
		assert.Equal(t, 5, updated.CurrentHP)
		assert.Equal(t, 2, updated.Version)
	})

	t.Run("Player cannot edit a combatant they do not own", func(t *testing.T) {
		f := newFixture(nil)
		playerID := uuid.New()
		session := activeSession(worldID)
		combatant := namedCombatant(session.ID, "Goblin", 12) // template-sourced

		f.sessions.On("GetByID", ctx, session.ID).Return(session, nil)
		f.memberships.On("GetRole", ctx, worldID, playerID).Return(models.WorldRolePlayer, nil)
		f.combatants.On("GetByID", ctx, combatant.ID).Return(&combatant, nil)

		_, _, err := f.svc.UpdateCombatant(ctx, playerID, session.ID, combatant.ID, models.CombatantUpdate{
			CurrentHP: intPtr(5),
		}, 1)
		assert.ErrorIs(t, err, models.ErrForbidden)
	})

	t.Run("Stale version surfaces as a retryable conflict", func(t *testing.T) {
		f := newFixture(nil)
		gmID := uuid.New()
		session := activeSession(worldID)
		combatant := namedCombatant(session.ID, "Goblin", 12)
		combatant.Version = 3

		f.sessions.On("GetByID", ctx, session.ID).Return(session, nil)
		f.memberships.On("GetRole", ctx, worldID, gmID).Return(models.WorldRoleGameMaster, nil)
		f.combatants.On("GetByID", ctx, combatant.ID).Return(&combatant, nil)
		f.combatants.On("Update", ctx, mock.Anything).Return(models.ErrVersionConflict).Once()

		_, _, err := f.svc.UpdateCombatant(ctx, gmID, session.ID, combatant.ID, models.CombatantUpdate{
			CurrentHP: intPtr(1),
		}, 2)
		assert.ErrorIs(t, err, models.ErrVersionConflict)
		f.publisher.AssertNotCalled(t, "PublishSessionEvent", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestRollDice(t *testing.T) {
	ctx := context.Background()
	worldID := uuid.New()
	playerID := uuid.New()

	onlineParticipant := func(sessionID uuid.UUID) *models.Participant {
		return &models.Participant{
			ID:        uuid.New(),
			SessionID: sessionID,
			UserID:    playerID,
			Name:      "Player One",
			IsOnline:  true,
		}
	}

	t.Run("Deterministic 2d6+3", func(t *testing.T) {
		// Подставной roller выдает 4, затем 2
		seq := []int{4, 2}
		roller := func(sides int) int {
			v := seq[0]
			seq = seq[1:]
			return v
		}
		f := newFixture(roller)
		session := activeSession(worldID)

		f.sessions.On("GetByID", ctx, session.ID).Return(session, nil)
		f.participants.On("GetBySessionAndUser", ctx, session.ID, playerID).Return(onlineParticipant(session.ID), nil)
		f.rolls.On("Append", ctx, mock.MatchedBy(func(r *models.DiceRoll) bool {
			return len(r.Rolls) == 2 && r.Rolls[0] == 4 && r.Rolls[1] == 2 && r.Modifier == 3 && r.Total == 9
		})).Return(nil).Once()
		f.expectBroadcastOK()

		roll, _, err := f.svc.RollDice(ctx, playerID, "Player One", session.ID, "2d6+3")
		require.NoError(t, err)
		assert.Equal(t, 9, roll.Total)
		f.rolls.AssertExpectations(t)
	})

	t.Run("Malformed notation is rejected before rolling", func(t *testing.T) {
		f := newFixture(nil)
		session := activeSession(worldID)
		f.sessions.On("GetByID", ctx, session.ID).Return(session, nil)
		f.participants.On("GetBySessionAndUser", ctx, session.ID, playerID).Return(onlineParticipant(session.ID), nil)

		for _, notation := range []string{"abc", "0d6", "2x6", "d20"} {
			_, _, err := f.svc.RollDice(ctx, playerID, "Player One", session.ID, notation)
			assert.ErrorIs(t, err, models.ErrInvalidDiceNotation, "notation %q", notation)
		}
		f.rolls.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	})

	t.Run("Offline user cannot roll", func(t *testing.T) {
		f := newFixture(nil)
		session := activeSession(worldID)
		p := onlineParticipant(session.ID)
		p.IsOnline = false
		f.sessions.On("GetByID", ctx, session.ID).Return(session, nil)
		f.participants.On("GetBySessionAndUser", ctx, session.ID, playerID).Return(p, nil)

		_, _, err := f.svc.RollDice(ctx, playerID, "Player One", session.ID, "1d20")
		assert.ErrorIs(t, err, models.ErrNotParticipant)
	})
}

func TestRest(t *testing.T) {
	ctx := context.Background()
	worldID := uuid.New()
	gmID := uuid.New()

	t.Run("Long rest restores HP and spell slots for the whole party", func(t *testing.T) {
		f := newFixture(nil)
		session := activeSession(worldID)
		charA := uuid.New()
		charB := uuid.New()

		f.sessions.On("GetByID", ctx, session.ID).Return(session, nil)
		f.memberships.On("GetRole", ctx, worldID, gmID).Return(models.WorldRoleGameMaster, nil)
		f.participants.On("ListBySession", ctx, session.ID, false).Return([]models.Participant{
			{ID: uuid.New(), SessionID: session.ID, UserID: gmID, Name: "The GM"}, // без персонажа
			{ID: uuid.New(), SessionID: session.ID, UserID: uuid.New(), CharacterID: &charA, Name: "A"},
			{ID: uuid.New(), SessionID: session.ID, UserID: uuid.New(), CharacterID: &charB, Name: "B"},
		}, nil)

		f.stats.On("GetStats", ctx, charA).Return(&models.CharacterStats{
			CharacterID: charA, CurrentHP: 3, MaxHP: 20,
			SpellSlots: []models.SpellSlot{{Level: 1, Max: 2, Used: 1}},
		}, nil)
		f.stats.On("GetStats", ctx, charB).Return(&models.CharacterStats{
			CharacterID: charB, CurrentHP: 11, MaxHP: 15,
		}, nil)
		f.stats.On("SaveStats", ctx, mock.MatchedBy(func(s *models.CharacterStats) bool {
			if s.CharacterID == charA {
				return s.CurrentHP == 20 && s.SpellSlots[0].Used == 0
			}
			return s.CharacterID == charB && s.CurrentHP == 15
		})).Return(nil).Twice()

		f.chat.On("Append", ctx, mock.MatchedBy(func(m *models.ChatMessage) bool {
			return m.IsSystem
		})).Return(nil).Once()
		f.expectBroadcastOK()

		degraded, err := f.svc.Rest(ctx, gmID, "The GM", session.ID, sharedMessaging.RestLong)
		require.NoError(t, err)
		assert.False(t, degraded)
		f.stats.AssertExpectations(t)
	})

	t.Run("Short rest is narrative only", func(t *testing.T) {
		f := newFixture(nil)
		session := activeSession(worldID)

		f.sessions.On("GetByID", ctx, session.ID).Return(session, nil)
		f.memberships.On("GetRole", ctx, worldID, gmID).Return(models.WorldRoleGameMaster, nil)
		f.chat.On("Append", ctx, mock.Anything).Return(nil).Once()
		f.expectBroadcastOK()

		_, err := f.svc.Rest(ctx, gmID, "The GM", session.ID, sharedMessaging.RestShort)
		require.NoError(t, err)
		f.stats.AssertNotCalled(t, "GetStats", mock.Anything, mock.Anything)
		f.stats.AssertNotCalled(t, "SaveStats", mock.Anything, mock.Anything)
	})
}

func TestBroadcastDegradation(t *testing.T) {
	ctx := context.Background()
	worldID := uuid.New()
	playerID := uuid.New()

	t.Run("Chat persists even when the channel is down", func(t *testing.T) {
		f := newFixture(nil)
		session := activeSession(worldID)
		f.sessions.On("GetByID", ctx, session.ID).Return(session, nil)
		f.participants.On("GetBySessionAndUser", ctx, session.ID, playerID).Return(&models.Participant{
			ID: uuid.New(), SessionID: session.ID, UserID: playerID, IsOnline: true,
		}, nil)
		f.chat.On("Append", ctx, mock.Anything).Return(nil).Once()
		f.publisher.On("PublishSessionEvent", mock.Anything, mock.Anything, mock.Anything).
			Return(errors.New("redis: connection refused"))

		msg, degraded, err := f.svc.SendChatMessage(ctx, playerID, "Player One", session.ID, "hello table")
		require.NoError(t, err, "persisted mutation must not fail on broadcast errors")
		assert.True(t, degraded, "initiator must see the degradation")
		assert.Equal(t, "hello table", msg.Body)
	})
}

func TestJoinSession(t *testing.T) {
	ctx := context.Background()
	worldID := uuid.New()
	playerID := uuid.New()

	t.Run("Join of inactive session fails", func(t *testing.T) {
		f := newFixture(nil)
		session := activeSession(worldID)
		session.IsActive = false
		f.sessions.On("GetByID", ctx, session.ID).Return(session, nil)

		_, _, err := f.svc.JoinSession(ctx, playerID, "Player One", session.ID, nil)
		assert.ErrorIs(t, err, models.ErrSessionNotActive)
		f.participants.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Rejoin reactivates the existing participant", func(t *testing.T) {
		f := newFixture(nil)
		session := activeSession(worldID)
		left := fixedNow.Add(-time.Hour)
		existing := &models.Participant{
			ID:        uuid.New(),
			SessionID: session.ID,
			UserID:    playerID,
			Name:      "Old Name",
			IsOnline:  false,
			LeftAt:    &left,
		}

		f.sessions.On("GetByID", ctx, session.ID).Return(session, nil)
		f.memberships.On("GetRole", ctx, worldID, playerID).Return(models.WorldRolePlayer, nil)
		f.participants.On("GetBySessionAndUser", ctx, session.ID, playerID).Return(existing, nil)
		f.participants.On("Update", ctx, mock.MatchedBy(func(p *models.Participant) bool {
			return p.ID == existing.ID && p.IsOnline && p.LeftAt == nil && p.Name == "Player One"
		})).Return(nil).Once()
		f.expectBroadcastOK()

		participant, _, err := f.svc.JoinSession(ctx, playerID, "Player One", session.ID, nil)
		require.NoError(t, err)
		assert.True(t, participant.IsOnline)
		f.participants.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Non-member cannot join", func(t *testing.T) {
		f := newFixture(nil)
		strangerID := uuid.New()
		session := activeSession(worldID)
		f.sessions.On("GetByID", ctx, session.ID).Return(session, nil)
		f.memberships.On("GetRole", ctx, worldID, strangerID).Return(models.WorldRole(""), models.ErrForbidden)

		_, _, err := f.svc.JoinSession(ctx, strangerID, "Stranger", session.ID, nil)
		assert.ErrorIs(t, err, models.ErrForbidden)
	})
}
