package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"finances-api/internal/models"
	"finances-api/internal/repositories/repository_mocks"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

// AuditServiceTestSuite is the test suite for AuditService
type AuditServiceTestSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	mockRepo *repository_mocks.MockAuditLogRepositoryInterface
	service  AuditServiceInterface
	ctx      context.Context
}

func (s *AuditServiceTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockRepo = repository_mocks.NewMockAuditLogRepositoryInterface(s.ctrl)
	s.service = NewAuditService(s.mockRepo, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.ctx = context.Background()
}

func (s *AuditServiceTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestAuditServiceSuite(t *testing.T) {
	suite.Run(t, new(AuditServiceTestSuite))
}

func (s *AuditServiceTestSuite) TestValidateActivityType() {
	for _, action := range []string{
		models.AuditActionLogin,
		models.AuditActionLogout,
		models.AuditActionCreate,
		models.AuditActionReconcile,
	} {
		s.NoError(ValidateActivityType(action), action)
	}

	s.Error(ValidateActivityType("invalid_action"))
}

func (s *AuditServiceTestSuite) TestLogChange_RecordsRequester() {
	ownerID := uuid.New()
	accountID := uuid.New()
	requester := Requester{OwnerID: ownerID, IPAddress: "10.0.0.1", UserAgent: "curl/8"}

	s.mockRepo.EXPECT().Create(s.ctx, gomock.Any()).DoAndReturn(func(_ context.Context, log *models.AuditLog) error {
		s.Require().NotNil(log.OwnerID)
		s.Equal(ownerID, *log.OwnerID)
		s.Equal(models.AuditActionUpdate, log.Action)
		s.Equal(models.AuditResourceAccount, log.Resource)
		s.Equal(accountID.String(), log.ResourceID)
		s.Equal("10.0.0.1", log.IPAddress)
		s.Equal("curl/8", log.UserAgent)
		s.Equal("25.00", log.Metadata["balance_after"])
		return nil
	})

	s.service.LogChange(s.ctx, requester, models.AuditActionUpdate, models.AuditResourceAccount, accountID,
		map[string]interface{}{"balance_after": "25.00"})
}

func (s *AuditServiceTestSuite) TestLogChange_AnonymousRequesterHasNoOwner() {
	s.mockRepo.EXPECT().Create(s.ctx, gomock.Any()).DoAndReturn(func(_ context.Context, log *models.AuditLog) error {
		s.Nil(log.OwnerID)
		return nil
	})

	s.service.LogChange(s.ctx, Requester{}, models.AuditActionDelete, models.AuditResourceOwner, uuid.New(), nil)
}

func (s *AuditServiceTestSuite) TestLogChange_StoreFailureIsSwallowed() {
	s.mockRepo.EXPECT().Create(s.ctx, gomock.Any()).Return(errors.New("database down"))

	s.NotPanics(func() {
		s.service.LogChange(s.ctx, Requester{OwnerID: uuid.New()}, models.AuditActionCreate, models.AuditResourceCategory, uuid.New(), nil)
	})
}

func (s *AuditServiceTestSuite) TestLogChange_UnknownActionIsNotStored() {
	s.service.LogChange(s.ctx, Requester{OwnerID: uuid.New()}, "rename", models.AuditResourceCategory, uuid.New(), nil)
}

func (s *AuditServiceTestSuite) TestLogAuthEvent() {
	ownerID := uuid.New()

	s.mockRepo.EXPECT().Create(s.ctx, gomock.Any()).DoAndReturn(func(_ context.Context, log *models.AuditLog) error {
		s.Equal("auth", log.Resource)
		s.Equal(ownerID.String(), log.ResourceID)
		s.Equal(models.AuditActionLogin, log.Action)
		return nil
	})

	s.service.LogAuthEvent(s.ctx, &ownerID, models.AuditActionLogin, "127.0.0.1", "test", nil)
}

func (s *AuditServiceTestSuite) TestGetOwnerActivity_ClampsLimit() {
	ownerID := uuid.New()

	s.mockRepo.EXPECT().GetByOwnerID(s.ctx, ownerID, DefaultActivityLimit).Return([]*models.AuditLog{}, nil)
	s.mockRepo.EXPECT().GetByOwnerID(s.ctx, ownerID, MaxActivityLimit).Return([]*models.AuditLog{}, nil)
	s.mockRepo.EXPECT().GetByOwnerID(s.ctx, ownerID, 10).Return([]*models.AuditLog{{Action: models.AuditActionLogin}}, nil)

	_, err := s.service.GetOwnerActivity(s.ctx, ownerID, 0)
	s.NoError(err)
	_, err = s.service.GetOwnerActivity(s.ctx, ownerID, MaxActivityLimit+1)
	s.NoError(err)
	logs, err := s.service.GetOwnerActivity(s.ctx, ownerID, 10)
	s.NoError(err)
	s.Len(logs, 1)
}

func (s *AuditServiceTestSuite) TestGetOwnerActivity_NilOwner() {
	logs, err := s.service.GetOwnerActivity(s.ctx, uuid.Nil, 10)
	s.ErrorIs(err, ErrInvalidOwnerID)
	s.Nil(logs)
}

func (s *AuditServiceTestSuite) TestGetResourceHistory() {
	budgetID := uuid.New()
	s.mockRepo.EXPECT().GetByResource(s.ctx, models.AuditResourceBudget, budgetID.String()).
		Return([]*models.AuditLog{{Action: models.AuditActionCreate}, {Action: models.AuditActionReconcile}}, nil)

	logs, err := s.service.GetResourceHistory(s.ctx, models.AuditResourceBudget, budgetID)
	s.NoError(err)
	s.Len(logs, 2)
}

func (s *AuditServiceTestSuite) TestPurgeOlderThan() {
	s.mockRepo.EXPECT().DeleteOlderThan(s.ctx, 24*time.Hour).Return(int64(3), nil)

	removed, err := s.service.PurgeOlderThan(s.ctx, 24*time.Hour)
	s.NoError(err)
	s.Equal(int64(3), removed)

	removed, err = s.service.PurgeOlderThan(s.ctx, 0)
	s.NoError(err)
	s.Zero(removed)
}
