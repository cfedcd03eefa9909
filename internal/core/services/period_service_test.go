package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/finpost/gl_engine_app/internal/apperrors"
	"github.com/finpost/gl_engine_app/internal/core/domain"
	portssvc "github.com/finpost/gl_engine_app/internal/core/ports/services"
	"github.com/finpost/gl_engine_app/internal/core/services"
	"github.com/finpost/gl_engine_app/internal/dto"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Test Suite Setup ---

type PeriodServiceTestSuite struct {
	suite.Suite
	mockPeriodRepo *MockPeriodRepository
	service        portssvc.PeriodSvcFacade
	userID         string
	june           domain.AccountingPeriod
}

func (suite *PeriodServiceTestSuite) SetupTest() {
	suite.mockPeriodRepo = new(MockPeriodRepository)
	suite.service = services.NewPeriodService(suite.mockPeriodRepo)
	suite.userID = uuid.NewString()

	suite.june = domain.AccountingPeriod{
		PeriodID:   uuid.NewString(),
		Name:       "2026-06",
		StartDate:  time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC),
		FiscalYear: 2026,
		PeriodType: domain.PeriodMonth,
		Status:     domain.PeriodOpen,
	}
}

// --- CreatePeriod ---

func (suite *PeriodServiceTestSuite) TestCreatePeriod_Success() {
	ctx := context.Background()
	req := dto.CreatePeriodRequest{
		Name:       "2026-07",
		StartDate:  time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC),
		FiscalYear: 2026,
		PeriodType: domain.PeriodMonth,
	}

	suite.mockPeriodRepo.On("FindOverlappingPeriod", ctx, req.StartDate, req.EndDate, "").Return(nil, nil).Once()
	suite.mockPeriodRepo.On("SavePeriod", ctx, mock.AnythingOfType("domain.AccountingPeriod")).Return(nil).Once()

	period, err := suite.service.CreatePeriod(ctx, req, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(domain.PeriodOpen, period.Status)
	suite.Equal("2026-07", period.Name)
	suite.Equal(suite.userID, period.CreatedBy)
	suite.mockPeriodRepo.AssertExpectations(suite.T())
}

func (suite *PeriodServiceTestSuite) TestCreatePeriod_Overlap() {
	ctx := context.Background()
	req := dto.CreatePeriodRequest{
		Name:       "2026-06b",
		StartDate:  time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC), // shares one day with June
		EndDate:    time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC),
		FiscalYear: 2026,
		PeriodType: domain.PeriodMonth,
	}

	suite.mockPeriodRepo.On("FindOverlappingPeriod", ctx, req.StartDate, req.EndDate, "").Return(&suite.june, nil).Once()

	_, err := suite.service.CreatePeriod(ctx, req, suite.userID)

	suite.Require().ErrorIs(err, services.ErrPeriodOverlap)
	suite.mockPeriodRepo.AssertNotCalled(suite.T(), "SavePeriod")
}

func (suite *PeriodServiceTestSuite) TestCreatePeriod_DatesInverted() {
	ctx := context.Background()
	req := dto.CreatePeriodRequest{
		Name:       "backwards",
		StartDate:  time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		FiscalYear: 2026,
		PeriodType: domain.PeriodMonth,
	}

	_, err := suite.service.CreatePeriod(ctx, req, suite.userID)

	suite.Require().ErrorIs(err, apperrors.ErrValidation)
	suite.mockPeriodRepo.AssertNotCalled(suite.T(), "FindOverlappingPeriod")
}

func (suite *PeriodServiceTestSuite) TestCreatePeriod_SingleDayAdjustment() {
	ctx := context.Background()
	day := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)
	req := dto.CreatePeriodRequest{
		Name:       "FY26-ADJ",
		StartDate:  day,
		EndDate:    day,
		FiscalYear: 2026,
		PeriodType: domain.PeriodAdjustment,
	}

	suite.mockPeriodRepo.On("FindOverlappingPeriod", ctx, day, day, "").Return(nil, nil).Once()
	suite.mockPeriodRepo.On("SavePeriod", ctx, mock.AnythingOfType("domain.AccountingPeriod")).Return(nil).Once()

	period, err := suite.service.CreatePeriod(ctx, req, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(domain.PeriodAdjustment, period.PeriodType)
}

// --- Close / Reopen ---

func (suite *PeriodServiceTestSuite) TestClosePeriod_Success() {
	ctx := context.Background()
	period := suite.june

	suite.mockPeriodRepo.On("FindPeriodByID", ctx, period.PeriodID).Return(&period, nil).Once()
	suite.mockPeriodRepo.On("UpdatePeriodStatus", ctx, period.PeriodID, domain.PeriodClosed, "", suite.userID, mock.AnythingOfType("time.Time")).Return(nil).Once()

	closed, events, err := suite.service.ClosePeriod(ctx, period.PeriodID, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(domain.PeriodClosed, closed.Status)
	suite.Require().Len(events, 1)
	closedEvent, ok := events[0].(domain.AccountingPeriodClosed)
	suite.Require().True(ok)
	suite.Equal(period.PeriodID, closedEvent.PeriodID)
	suite.Equal(2026, closedEvent.FiscalYear)
}

func (suite *PeriodServiceTestSuite) TestClosePeriod_AlreadyClosed() {
	ctx := context.Background()
	period := suite.june
	period.Status = domain.PeriodClosed

	suite.mockPeriodRepo.On("FindPeriodByID", ctx, period.PeriodID).Return(&period, nil).Once()

	_, _, err := suite.service.ClosePeriod(ctx, period.PeriodID, suite.userID)

	suite.Require().ErrorIs(err, services.ErrPeriodAlreadyClosed)
	suite.mockPeriodRepo.AssertNotCalled(suite.T(), "UpdatePeriodStatus")
}

func (suite *PeriodServiceTestSuite) TestReopenPeriod_Success() {
	ctx := context.Background()
	period := suite.june
	period.Status = domain.PeriodClosed
	reason := "late vendor invoice for June"

	suite.mockPeriodRepo.On("FindPeriodByID", ctx, period.PeriodID).Return(&period, nil).Once()
	suite.mockPeriodRepo.On("UpdatePeriodStatus", ctx, period.PeriodID, domain.PeriodOpen, reason, suite.userID, mock.AnythingOfType("time.Time")).Return(nil).Once()

	reopened, err := suite.service.ReopenPeriod(ctx, period.PeriodID, reason, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(domain.PeriodOpen, reopened.Status)
}

func (suite *PeriodServiceTestSuite) TestReopenPeriod_MissingReason() {
	ctx := context.Background()

	_, err := suite.service.ReopenPeriod(ctx, uuid.NewString(), "   ", suite.userID)

	suite.Require().ErrorIs(err, apperrors.ErrValidation)
	suite.mockPeriodRepo.AssertNotCalled(suite.T(), "UpdatePeriodStatus")
}

func (suite *PeriodServiceTestSuite) TestReopenPeriod_AlreadyOpen() {
	ctx := context.Background()
	period := suite.june

	suite.mockPeriodRepo.On("FindPeriodByID", ctx, period.PeriodID).Return(&period, nil).Once()

	_, err := suite.service.ReopenPeriod(ctx, period.PeriodID, "why not", suite.userID)

	suite.Require().ErrorIs(err, services.ErrPeriodAlreadyOpen)
}

// --- ListPeriods ---

func (suite *PeriodServiceTestSuite) TestListPeriods_PageToken() {
	ctx := context.Background()
	nextToken := "b3BhcXVlLWN1cnNvcg=="

	suite.mockPeriodRepo.On("ListPeriods", ctx, 2026, 25, (*string)(nil)).
		Return([]domain.AccountingPeriod{suite.june}, &nextToken, nil).Once()

	resp, err := suite.service.ListPeriods(ctx, dto.ListPeriodsParams{FiscalYear: 2026})

	suite.Require().NoError(err)
	suite.Require().Len(resp.Periods, 1)
	suite.Equal(suite.june.PeriodID, resp.Periods[0].PeriodID)
	suite.Require().NotNil(resp.NextToken)
	suite.Equal(nextToken, *resp.NextToken)

	suite.mockPeriodRepo.On("ListPeriods", ctx, 2026, 25, &nextToken).
		Return([]domain.AccountingPeriod{}, nil, nil).Once()

	resp, err = suite.service.ListPeriods(ctx, dto.ListPeriodsParams{FiscalYear: 2026, NextToken: &nextToken})

	suite.Require().NoError(err)
	suite.Empty(resp.Periods)
	suite.Nil(resp.NextToken)
	suite.mockPeriodRepo.AssertExpectations(suite.T())
}

// --- ResolveOpenPeriodForDate ---

func (suite *PeriodServiceTestSuite) TestResolveOpenPeriodForDate_Success() {
	ctx := context.Background()
	date := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)

	suite.mockPeriodRepo.On("FindPeriodForDate", ctx, date).Return(&suite.june, nil).Once()

	period, err := suite.service.ResolveOpenPeriodForDate(ctx, date)

	suite.Require().NoError(err)
	suite.Equal(suite.june.PeriodID, period.PeriodID)
}

func (suite *PeriodServiceTestSuite) TestResolveOpenPeriodForDate_NoPeriod() {
	ctx := context.Background()
	date := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	suite.mockPeriodRepo.On("FindPeriodForDate", ctx, date).Return(nil, apperrors.NewNotFoundError("no period")).Once()

	_, err := suite.service.ResolveOpenPeriodForDate(ctx, date)

	suite.Require().ErrorIs(err, services.ErrNoPeriodForDate)
}

func (suite *PeriodServiceTestSuite) TestResolveOpenPeriodForDate_ClosedPeriod() {
	ctx := context.Background()
	date := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	closed := suite.june
	closed.Status = domain.PeriodClosed

	suite.mockPeriodRepo.On("FindPeriodForDate", ctx, date).Return(&closed, nil).Once()

	_, err := suite.service.ResolveOpenPeriodForDate(ctx, date)

	suite.Require().ErrorIs(err, services.ErrPeriodClosed)
}

func TestPeriodServiceTestSuite(t *testing.T) {
	suite.Run(t, new(PeriodServiceTestSuite))
}
