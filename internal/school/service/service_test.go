package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"registrar/internal/audit"
	"registrar/internal/school/models"
	"registrar/internal/school/service/mocks"
	dErrors "registrar/pkg/domain-errors"
	"registrar/pkg/platform/sentinel"
	"registrar/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/school-mocks.go -package=mocks

type ServiceSuite struct {
	suite.Suite
	ctx      context.Context
	ctrl     *gomock.Controller
	commands *mocks.MockCommandStore
	queries  *mocks.MockQueryStore
	service  *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.ctrl = gomock.NewController(s.T())
	s.commands = mocks.NewMockCommandStore(s.ctrl)
	s.queries = mocks.NewMockQueryStore(s.ctrl)
	s.service = New(s.commands, s.queries)
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ServiceSuite) TestAddDefaultsBlankPrincipal() {
	var stored *models.School
	s.commands.EXPECT().Add(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, school *models.School) error {
			school.ID = 1
			school.RowVersion = 1
			stored = school
			return nil
		})

	school, err := s.service.Add(s.ctx, "Northside High", "1 Main Street", "   ")
	s.Require().NoError(err)
	s.Equal(models.DefaultPrincipalName, school.PrincipalName)
	s.Equal(models.DefaultPrincipalName, stored.PrincipalName)
}

func (s *ServiceSuite) TestAddStampsCreatedAtFromRequestInstant() {
	instant := time.Date(2024, time.June, 10, 9, 30, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(s.ctx, instant)

	s.commands.EXPECT().Add(gomock.Any(), gomock.Any()).Return(nil)

	school, err := s.service.Add(ctx, "Northside High", "1 Main Street", "A. Principal")
	s.Require().NoError(err)
	s.Equal(instant, school.CreatedAt)
}

func (s *ServiceSuite) TestAddRejectsInvalidInput() {
	_, err := s.service.Add(s.ctx, "", "1 Main Street", "")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ServiceSuite) TestAddEmitsChangeEvent() {
	publisher := mocks.NewMockChangePublisher(s.ctrl)
	svc := New(s.commands, s.queries, WithChangePublisher(publisher))

	s.commands.EXPECT().Add(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, school *models.School) error {
			school.ID = 7
			school.RowVersion = 1
			return nil
		})
	publisher.EXPECT().Emit(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, event audit.Event) error {
			s.Equal(audit.ActionSchoolCreated, event.Action)
			s.Equal(int64(7), event.SchoolID)
			return nil
		})

	_, err := svc.Add(s.ctx, "Northside High", "1 Main Street", "A. Principal")
	s.Require().NoError(err)
}

func (s *ServiceSuite) TestUpdateTranslatesStoreErrors() {
	school := &models.School{ID: 1, Name: "N", Address: "A", PrincipalName: "P"}

	s.commands.EXPECT().Update(gomock.Any(), school, int64(0)).Return(sentinel.ErrNotFound)
	err := s.service.Update(s.ctx, school, 0)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	s.commands.EXPECT().Update(gomock.Any(), school, int64(3)).Return(sentinel.ErrConflict)
	err = s.service.Update(s.ctx, school, 3)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *ServiceSuite) TestUpdateRejectsInvalidSchool() {
	err := s.service.Update(s.ctx, &models.School{ID: 1}, 0)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

// TestDeleteChecksExistenceBeforeMutating pins the facade contract: the
// query side answers first, and a miss must leave the command store
// completely untouched.
func (s *ServiceSuite) TestDeleteChecksExistenceBeforeMutating() {
	s.queries.EXPECT().GetByID(gomock.Any(), int64(5)).Return(nil, sentinel.ErrNotFound)
	s.commands.EXPECT().Delete(gomock.Any(), gomock.Any()).Times(0)

	err := s.service.Delete(s.ctx, 5)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestDeleteHappyPath() {
	s.queries.EXPECT().GetByID(gomock.Any(), int64(5)).
		Return(&models.School{ID: 5, Name: "N", Address: "A", PrincipalName: "P"}, nil)
	s.commands.EXPECT().Delete(gomock.Any(), int64(5)).Return(nil)

	s.Require().NoError(s.service.Delete(s.ctx, 5))
}

// TestWritesForbiddenWithoutCommandStore covers the reader profile: the
// command side is absent and every mutation fails Forbidden without any
// store interaction.
func (s *ServiceSuite) TestWritesForbiddenWithoutCommandStore() {
	reader := New(nil, s.queries)

	_, err := reader.Add(s.ctx, "N", "A", "P")
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	err = reader.Update(s.ctx, &models.School{ID: 1, Name: "N", Address: "A", PrincipalName: "P"}, 0)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	err = reader.Delete(s.ctx, 1)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

func (s *ServiceSuite) TestReadsForbiddenWithoutQueryStore() {
	writer := New(s.commands, nil)

	_, err := writer.GetByID(s.ctx, 1)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	_, err = writer.GetAll(s.ctx)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

func (s *ServiceSuite) TestGetByIDTranslatesNotFound() {
	s.queries.EXPECT().GetByID(gomock.Any(), int64(9)).Return(nil, sentinel.ErrNotFound)

	_, err := s.service.GetByID(s.ctx, 9)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestGetAllTranslatesEmptyRegistry() {
	s.queries.EXPECT().GetAll(gomock.Any()).Return(nil, sentinel.ErrNotFound)

	_, err := s.service.GetAll(s.ctx)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestGetByDateRangeRejectsInvertedRange() {
	from := time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC)

	_, err := s.service.GetByDateRange(s.ctx, from, from.Add(-time.Hour))
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ServiceSuite) TestGetByDateRangePassesThrough() {
	from := time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)
	expected := []models.Version{{School: models.School{ID: 1}}}

	s.queries.EXPECT().GetByDateRange(gomock.Any(), from, to).Return(expected, nil)

	versions, err := s.service.GetByDateRange(s.ctx, from, to)
	s.Require().NoError(err)
	s.Equal(expected, versions)
}

func (s *ServiceSuite) TestGetAllVersionsTranslatesNotFound() {
	s.queries.EXPECT().GetAllVersions(gomock.Any(), int64(3)).Return(nil, sentinel.ErrNotFound)

	_, err := s.service.GetAllVersions(s.ctx, 3)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
