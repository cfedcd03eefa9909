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
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Test Suite Setup ---

type JournalServiceTestSuite struct {
	suite.Suite
	mockJournalRepo *MockJournalRepository
	mockAccountSvc  *MockAccountService
	mockPeriodSvc   *MockPeriodService
	service         portssvc.JournalSvcFacade
	assetAccount    domain.Account
	revenueAccount  domain.Account
	openPeriod      domain.AccountingPeriod
	userID          string
}

func (suite *JournalServiceTestSuite) SetupTest() {
	suite.mockJournalRepo = new(MockJournalRepository)
	suite.mockAccountSvc = new(MockAccountService)
	suite.mockPeriodSvc = new(MockPeriodService)
	suite.service = services.NewJournalService(suite.mockJournalRepo, suite.mockAccountSvc, suite.mockPeriodSvc)

	suite.userID = uuid.NewString()

	suite.assetAccount = domain.Account{
		AccountID:     uuid.NewString(),
		Code:          "1000",
		AccountType:   domain.Asset,
		NormalBalance: domain.DebitNormal,
		IsActive:      true,
	}
	suite.revenueAccount = domain.Account{
		AccountID:     uuid.NewString(),
		Code:          "4000",
		AccountType:   domain.Revenue,
		NormalBalance: domain.CreditNormal,
		IsActive:      true,
	}
	suite.openPeriod = domain.AccountingPeriod{
		PeriodID:   uuid.NewString(),
		Name:       "2026-06",
		StartDate:  time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC),
		FiscalYear: 2026,
		PeriodType: domain.PeriodMonth,
		Status:     domain.PeriodOpen,
	}
}

func (suite *JournalServiceTestSuite) accountsMap() map[string]domain.Account {
	return map[string]domain.Account{
		suite.assetAccount.AccountID:   suite.assetAccount,
		suite.revenueAccount.AccountID: suite.revenueAccount,
	}
}

func (suite *JournalServiceTestSuite) balancedLines(journalID string) []domain.JournalLine {
	return []domain.JournalLine{
		{LineID: uuid.NewString(), JournalID: journalID, AccountID: suite.assetAccount.AccountID, Debit: decimal.NewFromInt(100), Credit: decimal.Zero, LineOrder: 1},
		{LineID: uuid.NewString(), JournalID: journalID, AccountID: suite.revenueAccount.AccountID, Debit: decimal.Zero, Credit: decimal.NewFromInt(100), LineOrder: 2},
	}
}

func (suite *JournalServiceTestSuite) draftEntry() *domain.JournalEntry {
	journalID := uuid.NewString()
	return &domain.JournalEntry{
		JournalID:   journalID,
		JournalDate: time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC),
		PeriodID:    suite.openPeriod.PeriodID,
		Description: "Cash sale",
		Source:      domain.SourceManual,
		Status:      domain.EntryDraft,
	}
}

// --- CreateEntry ---

func (suite *JournalServiceTestSuite) TestCreateEntry_Success() {
	ctx := context.Background()
	req := dto.CreateEntryRequest{
		Date:        time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC),
		Description: "Cash sale",
		Lines: []dto.CreateLineRequest{
			{AccountID: suite.assetAccount.AccountID, Debit: decimal.NewFromInt(100)},
			{AccountID: suite.revenueAccount.AccountID, Credit: decimal.NewFromInt(100)},
		},
	}

	suite.mockPeriodSvc.On("ResolveOpenPeriodForDate", ctx, req.Date).Return(&suite.openPeriod, nil).Once()
	suite.mockAccountSvc.On("GetAccountsByIDs", ctx, []string{suite.assetAccount.AccountID, suite.revenueAccount.AccountID}).Return(suite.accountsMap(), nil).Once()
	suite.mockJournalRepo.On("SaveEntry", ctx, mock.AnythingOfType("domain.JournalEntry"), mock.AnythingOfType("[]domain.JournalLine")).Return(nil).Once()

	entry, err := suite.service.CreateEntry(ctx, req, suite.userID)

	suite.Require().NoError(err)
	suite.Require().NotNil(entry)
	suite.NotEmpty(entry.JournalID)
	suite.Equal(domain.EntryDraft, entry.Status)
	suite.Equal(suite.openPeriod.PeriodID, entry.PeriodID)
	suite.Equal(domain.SourceManual, entry.Source)
	suite.Len(entry.Lines, 2)
	suite.Equal(1, entry.Lines[0].LineOrder)
	suite.Equal(2, entry.Lines[1].LineOrder)
	suite.Equal(suite.userID, entry.CreatedBy)
	suite.True(entry.IsBalanced())

	suite.mockJournalRepo.AssertExpectations(suite.T())
	suite.mockAccountSvc.AssertExpectations(suite.T())
	suite.mockPeriodSvc.AssertExpectations(suite.T())
}

func (suite *JournalServiceTestSuite) TestCreateEntry_MissingDescription() {
	ctx := context.Background()
	req := dto.CreateEntryRequest{
		Date:        time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC),
		Description: "   ",
		Lines: []dto.CreateLineRequest{
			{AccountID: suite.assetAccount.AccountID, Debit: decimal.NewFromInt(100)},
			{AccountID: suite.revenueAccount.AccountID, Credit: decimal.NewFromInt(100)},
		},
	}

	_, err := suite.service.CreateEntry(ctx, req, suite.userID)

	suite.Require().ErrorIs(err, services.ErrDescriptionMissing)
	suite.mockJournalRepo.AssertNotCalled(suite.T(), "SaveEntry")
}

func (suite *JournalServiceTestSuite) TestCreateEntry_Unbalanced() {
	ctx := context.Background()
	req := dto.CreateEntryRequest{
		Date:        time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC),
		Description: "Lopsided",
		Lines: []dto.CreateLineRequest{
			{AccountID: suite.assetAccount.AccountID, Debit: decimal.NewFromInt(100)},
			{AccountID: suite.revenueAccount.AccountID, Credit: decimal.NewFromInt(90)},
		},
	}

	suite.mockPeriodSvc.On("ResolveOpenPeriodForDate", ctx, req.Date).Return(&suite.openPeriod, nil).Once()

	_, err := suite.service.CreateEntry(ctx, req, suite.userID)

	suite.Require().ErrorIs(err, services.ErrEntryUnbalanced)
	suite.mockJournalRepo.AssertNotCalled(suite.T(), "SaveEntry")
}

func (suite *JournalServiceTestSuite) TestCreateEntry_SingleLine() {
	ctx := context.Background()
	req := dto.CreateEntryRequest{
		Date:        time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC),
		Description: "Half an event",
		Lines: []dto.CreateLineRequest{
			{AccountID: suite.assetAccount.AccountID, Debit: decimal.NewFromInt(100)},
		},
	}

	suite.mockPeriodSvc.On("ResolveOpenPeriodForDate", ctx, req.Date).Return(&suite.openPeriod, nil).Once()

	_, err := suite.service.CreateEntry(ctx, req, suite.userID)

	suite.Require().ErrorIs(err, services.ErrEntryMinLines)
}

func (suite *JournalServiceTestSuite) TestCreateEntry_DateOutsideExplicitPeriod() {
	ctx := context.Background()
	req := dto.CreateEntryRequest{
		Date:        time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC),
		PeriodID:    suite.openPeriod.PeriodID,
		Description: "Wrong month",
		Lines: []dto.CreateLineRequest{
			{AccountID: suite.assetAccount.AccountID, Debit: decimal.NewFromInt(100)},
			{AccountID: suite.revenueAccount.AccountID, Credit: decimal.NewFromInt(100)},
		},
	}

	suite.mockPeriodSvc.On("GetPeriodByID", ctx, suite.openPeriod.PeriodID).Return(&suite.openPeriod, nil).Once()

	_, err := suite.service.CreateEntry(ctx, req, suite.userID)

	suite.Require().ErrorIs(err, apperrors.ErrValidation)
	suite.mockJournalRepo.AssertNotCalled(suite.T(), "SaveEntry")
}

func (suite *JournalServiceTestSuite) TestCreateEntry_InactiveAccount() {
	ctx := context.Background()
	inactive := suite.revenueAccount
	inactive.IsActive = false
	accounts := map[string]domain.Account{
		suite.assetAccount.AccountID: suite.assetAccount,
		inactive.AccountID:           inactive,
	}

	req := dto.CreateEntryRequest{
		Date:        time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC),
		Description: "Dead account",
		Lines: []dto.CreateLineRequest{
			{AccountID: suite.assetAccount.AccountID, Debit: decimal.NewFromInt(100)},
			{AccountID: inactive.AccountID, Credit: decimal.NewFromInt(100)},
		},
	}

	suite.mockPeriodSvc.On("ResolveOpenPeriodForDate", ctx, req.Date).Return(&suite.openPeriod, nil).Once()
	suite.mockAccountSvc.On("GetAccountsByIDs", ctx, mock.Anything).Return(accounts, nil).Once()

	_, err := suite.service.CreateEntry(ctx, req, suite.userID)

	suite.Require().ErrorIs(err, services.ErrAccountInactive)
	suite.mockJournalRepo.AssertNotCalled(suite.T(), "SaveEntry")
}

// --- PostEntry ---

func (suite *JournalServiceTestSuite) TestPostEntry_Success() {
	ctx := context.Background()
	entry := suite.draftEntry()
	lines := suite.balancedLines(entry.JournalID)

	suite.mockJournalRepo.On("FindEntryByID", ctx, entry.JournalID).Return(entry, nil).Once()
	suite.mockJournalRepo.On("FindLinesByJournalID", ctx, entry.JournalID).Return(lines, nil).Once()
	suite.mockPeriodSvc.On("GetPeriodByID", ctx, suite.openPeriod.PeriodID).Return(&suite.openPeriod, nil).Once()
	suite.mockAccountSvc.On("GetAccountsByIDs", ctx, mock.Anything).Return(suite.accountsMap(), nil).Once()
	suite.mockJournalRepo.On("PostEntry", ctx, mock.AnythingOfType("domain.JournalEntry"), lines, mock.AnythingOfType("map[string]decimal.Decimal"), suite.userID, mock.AnythingOfType("time.Time")).Return(nil).Once()

	posted, events, err := suite.service.PostEntry(ctx, entry.JournalID, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(domain.EntryPosted, posted.Status)
	suite.Require().Len(events, 1)

	postedEvent, ok := events[0].(domain.JournalEntryPosted)
	suite.Require().True(ok)
	suite.Equal(entry.JournalID, postedEvent.JournalID)
	// Both sides grow on their normal side, so both deltas are +100.
	suite.True(postedEvent.Deltas[suite.assetAccount.AccountID].Equal(decimal.NewFromInt(100)))
	suite.True(postedEvent.Deltas[suite.revenueAccount.AccountID].Equal(decimal.NewFromInt(100)))

	suite.mockJournalRepo.AssertExpectations(suite.T())
}

func (suite *JournalServiceTestSuite) TestPostEntry_NotDraft() {
	ctx := context.Background()
	entry := suite.draftEntry()
	entry.Status = domain.EntryPosted
	lines := suite.balancedLines(entry.JournalID)

	suite.mockJournalRepo.On("FindEntryByID", ctx, entry.JournalID).Return(entry, nil).Once()
	suite.mockJournalRepo.On("FindLinesByJournalID", ctx, entry.JournalID).Return(lines, nil).Once()

	_, _, err := suite.service.PostEntry(ctx, entry.JournalID, suite.userID)

	suite.Require().ErrorIs(err, services.ErrEntryNotDraft)
	suite.mockJournalRepo.AssertNotCalled(suite.T(), "PostEntry")
}

func (suite *JournalServiceTestSuite) TestPostEntry_InBatch() {
	ctx := context.Background()
	entry := suite.draftEntry()
	batchID := uuid.NewString()
	entry.BatchID = &batchID
	lines := suite.balancedLines(entry.JournalID)

	suite.mockJournalRepo.On("FindEntryByID", ctx, entry.JournalID).Return(entry, nil).Once()
	suite.mockJournalRepo.On("FindLinesByJournalID", ctx, entry.JournalID).Return(lines, nil).Once()

	_, _, err := suite.service.PostEntry(ctx, entry.JournalID, suite.userID)

	suite.Require().ErrorIs(err, services.ErrEntryInBatch)
}

func (suite *JournalServiceTestSuite) TestPostEntry_ClosedPeriod() {
	ctx := context.Background()
	entry := suite.draftEntry()
	lines := suite.balancedLines(entry.JournalID)
	closed := suite.openPeriod
	closed.Status = domain.PeriodClosed

	suite.mockJournalRepo.On("FindEntryByID", ctx, entry.JournalID).Return(entry, nil).Once()
	suite.mockJournalRepo.On("FindLinesByJournalID", ctx, entry.JournalID).Return(lines, nil).Once()
	suite.mockPeriodSvc.On("GetPeriodByID", ctx, suite.openPeriod.PeriodID).Return(&closed, nil).Once()

	_, _, err := suite.service.PostEntry(ctx, entry.JournalID, suite.userID)

	suite.Require().ErrorIs(err, services.ErrPeriodClosed)
	suite.mockJournalRepo.AssertNotCalled(suite.T(), "PostEntry")
}

func (suite *JournalServiceTestSuite) TestPostEntry_Unbalanced() {
	ctx := context.Background()
	entry := suite.draftEntry()
	lines := suite.balancedLines(entry.JournalID)
	lines[1].Credit = decimal.NewFromInt(99)

	suite.mockJournalRepo.On("FindEntryByID", ctx, entry.JournalID).Return(entry, nil).Once()
	suite.mockJournalRepo.On("FindLinesByJournalID", ctx, entry.JournalID).Return(lines, nil).Once()

	_, _, err := suite.service.PostEntry(ctx, entry.JournalID, suite.userID)

	suite.Require().ErrorIs(err, services.ErrEntryUnbalanced)
	suite.mockJournalRepo.AssertNotCalled(suite.T(), "PostEntry")
}

// --- RejectEntry ---

func (suite *JournalServiceTestSuite) TestRejectEntry_Success() {
	ctx := context.Background()
	entry := suite.draftEntry()
	lines := suite.balancedLines(entry.JournalID)

	suite.mockJournalRepo.On("FindEntryByID", ctx, entry.JournalID).Return(entry, nil).Once()
	suite.mockJournalRepo.On("FindLinesByJournalID", ctx, entry.JournalID).Return(lines, nil).Once()
	suite.mockJournalRepo.On("UpdateEntryStatus", ctx, entry.JournalID, domain.EntryRejected, suite.userID, mock.AnythingOfType("time.Time")).Return(nil).Once()

	rejected, err := suite.service.RejectEntry(ctx, entry.JournalID, "duplicate of JE-17", suite.userID)

	suite.Require().NoError(err)
	suite.Equal(domain.EntryRejected, rejected.Status)
	suite.mockJournalRepo.AssertExpectations(suite.T())
}

func (suite *JournalServiceTestSuite) TestRejectEntry_MissingReason() {
	ctx := context.Background()

	_, err := suite.service.RejectEntry(ctx, uuid.NewString(), "  ", suite.userID)

	suite.Require().ErrorIs(err, apperrors.ErrValidation)
	suite.mockJournalRepo.AssertNotCalled(suite.T(), "UpdateEntryStatus")
}

// --- ReverseEntry ---

func (suite *JournalServiceTestSuite) TestReverseEntry_Success() {
	ctx := context.Background()
	entry := suite.draftEntry()
	entry.Status = domain.EntryPosted
	lines := suite.balancedLines(entry.JournalID)
	reversalDate := time.Date(2026, 6, 20, 0, 0, 0, 0, time.UTC)

	suite.mockJournalRepo.On("FindEntryByID", ctx, entry.JournalID).Return(entry, nil).Once()
	suite.mockJournalRepo.On("FindLinesByJournalID", ctx, entry.JournalID).Return(lines, nil).Once()
	suite.mockPeriodSvc.On("ResolveOpenPeriodForDate", ctx, reversalDate).Return(&suite.openPeriod, nil).Once()
	suite.mockJournalRepo.On("SaveReversal", ctx, mock.AnythingOfType("domain.JournalEntry"), mock.AnythingOfType("[]domain.JournalLine"), suite.userID, mock.AnythingOfType("time.Time")).Return(nil).Once()

	reversal, events, err := suite.service.ReverseEntry(ctx, entry.JournalID, reversalDate, suite.userID)

	suite.Require().NoError(err)
	suite.Require().NotNil(reversal)
	suite.Equal(domain.EntryDraft, reversal.Status)
	suite.Equal(domain.SourceSystem, reversal.Source)
	suite.Require().NotNil(reversal.OriginalJournalID)
	suite.Equal(entry.JournalID, *reversal.OriginalJournalID)
	suite.Contains(reversal.Description, "Reversal of:")

	// Debits and credits swap sides; accounts and order are preserved.
	suite.Require().Len(reversal.Lines, 2)
	suite.True(reversal.Lines[0].Credit.Equal(lines[0].Debit))
	suite.True(reversal.Lines[0].Debit.Equal(lines[0].Credit))
	suite.Equal(lines[0].AccountID, reversal.Lines[0].AccountID)
	suite.Equal(lines[0].LineOrder, reversal.Lines[0].LineOrder)

	suite.Require().Len(events, 1)
	reversedEvent, ok := events[0].(domain.JournalEntryReversed)
	suite.Require().True(ok)
	suite.Equal(entry.JournalID, reversedEvent.JournalID)
	suite.Equal(reversal.JournalID, reversedEvent.ReversingJournalID)

	suite.mockJournalRepo.AssertExpectations(suite.T())
}

func (suite *JournalServiceTestSuite) TestReverseEntry_NotPosted() {
	ctx := context.Background()
	entry := suite.draftEntry()
	lines := suite.balancedLines(entry.JournalID)

	suite.mockJournalRepo.On("FindEntryByID", ctx, entry.JournalID).Return(entry, nil).Once()
	suite.mockJournalRepo.On("FindLinesByJournalID", ctx, entry.JournalID).Return(lines, nil).Once()

	_, _, err := suite.service.ReverseEntry(ctx, entry.JournalID, time.Now(), suite.userID)

	suite.Require().ErrorIs(err, services.ErrEntryNotPosted)
	suite.mockJournalRepo.AssertNotCalled(suite.T(), "SaveReversal")
}

func (suite *JournalServiceTestSuite) TestReverseEntry_AlreadyReversed() {
	ctx := context.Background()
	entry := suite.draftEntry()
	entry.Status = domain.EntryPosted
	reversingID := uuid.NewString()
	entry.ReversingJournalID = &reversingID
	lines := suite.balancedLines(entry.JournalID)

	suite.mockJournalRepo.On("FindEntryByID", ctx, entry.JournalID).Return(entry, nil).Once()
	suite.mockJournalRepo.On("FindLinesByJournalID", ctx, entry.JournalID).Return(lines, nil).Once()

	_, _, err := suite.service.ReverseEntry(ctx, entry.JournalID, time.Now(), suite.userID)

	suite.Require().ErrorIs(err, services.ErrEntryAlreadyReversed)
}

func (suite *JournalServiceTestSuite) TestReverseEntry_OfReversal() {
	ctx := context.Background()
	entry := suite.draftEntry()
	entry.Status = domain.EntryPosted
	originalID := uuid.NewString()
	entry.OriginalJournalID = &originalID
	lines := suite.balancedLines(entry.JournalID)

	suite.mockJournalRepo.On("FindEntryByID", ctx, entry.JournalID).Return(entry, nil).Once()
	suite.mockJournalRepo.On("FindLinesByJournalID", ctx, entry.JournalID).Return(lines, nil).Once()

	_, _, err := suite.service.ReverseEntry(ctx, entry.JournalID, time.Now(), suite.userID)

	suite.Require().ErrorIs(err, services.ErrEntryIsReversal)
}

// --- Line edits ---

func (suite *JournalServiceTestSuite) TestAddLine_Success() {
	ctx := context.Background()
	entry := suite.draftEntry()
	lines := suite.balancedLines(entry.JournalID)

	suite.mockJournalRepo.On("FindEntryByID", ctx, entry.JournalID).Return(entry, nil).Once()
	suite.mockJournalRepo.On("FindLinesByJournalID", ctx, entry.JournalID).Return(lines, nil).Once()
	suite.mockAccountSvc.On("GetAccountByID", ctx, suite.assetAccount.AccountID).Return(&suite.assetAccount, nil).Once()
	suite.mockJournalRepo.On("InsertLine", ctx, mock.AnythingOfType("domain.JournalLine")).Return(nil).Once()

	req := dto.CreateLineRequest{AccountID: suite.assetAccount.AccountID, Debit: decimal.NewFromInt(50)}
	updated, err := suite.service.AddLine(ctx, entry.JournalID, req, suite.userID)

	suite.Require().NoError(err)
	suite.Require().Len(updated.Lines, 3)
	suite.Equal(3, updated.Lines[2].LineOrder)
	suite.False(updated.IsBalanced()) // transiently unbalanced drafts are allowed
	suite.mockJournalRepo.AssertExpectations(suite.T())
}

func (suite *JournalServiceTestSuite) TestAddLine_BothSidesSet() {
	ctx := context.Background()
	entry := suite.draftEntry()
	lines := suite.balancedLines(entry.JournalID)

	suite.mockJournalRepo.On("FindEntryByID", ctx, entry.JournalID).Return(entry, nil).Once()
	suite.mockJournalRepo.On("FindLinesByJournalID", ctx, entry.JournalID).Return(lines, nil).Once()
	suite.mockAccountSvc.On("GetAccountByID", ctx, suite.assetAccount.AccountID).Return(&suite.assetAccount, nil).Once()

	req := dto.CreateLineRequest{AccountID: suite.assetAccount.AccountID, Debit: decimal.NewFromInt(50), Credit: decimal.NewFromInt(50)}
	_, err := suite.service.AddLine(ctx, entry.JournalID, req, suite.userID)

	suite.Require().ErrorIs(err, apperrors.ErrValidation)
	suite.mockJournalRepo.AssertNotCalled(suite.T(), "InsertLine")
}

func (suite *JournalServiceTestSuite) TestRemoveLine_NotFound() {
	ctx := context.Background()
	entry := suite.draftEntry()
	lines := suite.balancedLines(entry.JournalID)

	suite.mockJournalRepo.On("FindEntryByID", ctx, entry.JournalID).Return(entry, nil).Once()
	suite.mockJournalRepo.On("FindLinesByJournalID", ctx, entry.JournalID).Return(lines, nil).Once()

	_, err := suite.service.RemoveLine(ctx, entry.JournalID, uuid.NewString(), suite.userID)

	suite.Require().ErrorIs(err, apperrors.ErrNotFound)
	suite.mockJournalRepo.AssertNotCalled(suite.T(), "DeleteLine")
}

func TestJournalServiceTestSuite(t *testing.T) {
	suite.Run(t, new(JournalServiceTestSuite))
}
