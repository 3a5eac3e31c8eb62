// Package seed provides helpers to create test and demo data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"orgdesk/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options configures a seeding run.
type Options struct {
	NumUsers      int
	NumPerEntity  int
	ShouldClean   bool
	SkipBcrypt    bool
	DryRun        bool
	MaxDaysSpread int
}

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by seed presets and tests.
type Factory struct {
	db   *gorm.DB
	opts Options
	rng  *rand.Rand
	// synthetic ID counter when running in DryRun mode
	nextID uint
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	// #nosec G404: acceptable for seeding
	return &Factory{
		db:     db,
		opts:   opts,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		nextID: 1000,
	}
}

var (
	documentCategories = []string{"bylaws", "minutes", "reports", "proposals", "contracts", "policies"}
	divisions          = []string{"Secretariat", "Finance", "Public Relations", "Education", "Logistics", "Membership"}
	letterOrgs         = []string{"City Council", "Ministry of Education", "Partner Foundation", "Regional Office", "Audit Bureau"}
	reviewNotes        = []string{
		"Missing supporting attachments",
		"Budget figures do not add up",
		"Please clarify the scope section",
		"Duplicate of an earlier submission",
		"Wrong reporting period",
	}
)

// pastTime returns a timestamp spread over the configured lookback window so
// seeded data does not all cluster at now.
func (f *Factory) pastTime() time.Time {
	maxDays := f.opts.MaxDaysSpread
	if maxDays <= 0 {
		maxDays = 90
	}
	daysBack := f.rng.Intn(maxDays)
	hoursBack := f.rng.Intn(24)
	minsBack := f.rng.Intn(60)
	return time.Now().Add(-time.Duration(daysBack)*24*time.Hour - time.Duration(hoursBack)*time.Hour - time.Duration(minsBack)*time.Minute)
}

func (f *Factory) persist(value interface{}, describe string) error {
	if f.opts.DryRun {
		log.Printf("[dry-run] %s (no DB write)", describe)
		return nil
	}
	return f.db.Create(value).Error
}

// CreateUser constructs and persists a sample `models.User`.
// Optional override functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	user := &models.User{
		Username: gofakeit.Username() + fmt.Sprintf("%d", gofakeit.Number(100, 999)),
		Email:    gofakeit.Email(),
		FullName: gofakeit.Name(),
		Role:     models.UserRoleMember,
		Avatar:   fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
	}

	// Password handling: allow skipping bcrypt in dev fast mode
	if f.opts.SkipBcrypt {
		user.Password = "password123"
	} else {
		hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
		user.Password = string(hashedPassword)
	}

	for _, override := range overrides {
		override(user)
	}

	if f.opts.DryRun {
		f.nextID++
		user.ID = f.nextID
		log.Printf("[dry-run] CreateUser: %s (%s)", user.Username, user.Role)
		return user, nil
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreateDocument persists a sample document owned by the given user.
func (f *Factory) CreateDocument(owner *models.User, overrides ...func(*models.Document)) (*models.Document, error) {
	doc := &models.Document{
		Title:       strings.TrimSuffix(gofakeit.Sentence(5), "."),
		Description: gofakeit.Paragraph(1, 3, 8, "\n"),
		FileURL:     fmt.Sprintf("https://files.example.org/docs/%s.pdf", gofakeit.UUID()),
		Category:    documentCategories[f.rng.Intn(len(documentCategories))],
		OwnerID:     owner.ID,
	}
	doc.CreatedAt = f.pastTime()

	for _, override := range overrides {
		override(doc)
	}
	if f.opts.DryRun {
		f.nextID++
		doc.ID = f.nextID
	}
	if err := f.persist(doc, fmt.Sprintf("CreateDocument: %q owner=%d", doc.Title, doc.OwnerID)); err != nil {
		return nil, err
	}
	return doc, nil
}

// CreateEvent persists a sample event owned by the given user. Roughly half
// of generated events lie in the future so the upcoming filter has data.
func (f *Factory) CreateEvent(owner *models.User, overrides ...func(*models.Event)) (*models.Event, error) {
	start := f.pastTime()
	if f.rng.Intn(2) == 0 {
		start = time.Now().Add(time.Duration(1+f.rng.Intn(30)) * 24 * time.Hour)
	}
	ev := &models.Event{
		Name:        strings.TrimSuffix(gofakeit.Sentence(4), "."),
		Description: gofakeit.Paragraph(1, 2, 8, "\n"),
		Location:    gofakeit.City(),
		StartsAt:    start,
		EndsAt:      start.Add(time.Duration(1+f.rng.Intn(6)) * time.Hour),
		OwnerID:     owner.ID,
	}
	for _, override := range overrides {
		override(ev)
	}
	if f.opts.DryRun {
		f.nextID++
		ev.ID = f.nextID
	}
	if err := f.persist(ev, fmt.Sprintf("CreateEvent: %q owner=%d", ev.Name, ev.OwnerID)); err != nil {
		return nil, err
	}
	return ev, nil
}

// CreateFinanceTransaction persists a sample ledger entry owned by the given user.
func (f *Factory) CreateFinanceTransaction(owner *models.User, overrides ...func(*models.FinanceTransaction)) (*models.FinanceTransaction, error) {
	direction := models.FinanceDirectionExpense
	if f.rng.Intn(2) == 0 {
		direction = models.FinanceDirectionIncome
	}
	tx := &models.FinanceTransaction{
		Title:       strings.TrimSuffix(gofakeit.Sentence(4), "."),
		Description: gofakeit.Sentence(10),
		Direction:   direction,
		AmountCents: int64(gofakeit.Number(500, 5000000)),
		OccurredAt:  f.pastTime(),
		OwnerID:     owner.ID,
	}
	for _, override := range overrides {
		override(tx)
	}
	if f.opts.DryRun {
		f.nextID++
		tx.ID = f.nextID
	}
	if err := f.persist(tx, fmt.Sprintf("CreateFinanceTransaction: %s %d owner=%d", tx.Direction, tx.AmountCents, tx.OwnerID)); err != nil {
		return nil, err
	}
	return tx, nil
}

// CreateLetter persists a sample piece of correspondence owned by the given user.
func (f *Factory) CreateLetter(owner *models.User, overrides ...func(*models.Letter)) (*models.Letter, error) {
	direction := models.LetterDirectionOutgoing
	if f.rng.Intn(2) == 0 {
		direction = models.LetterDirectionIncoming
	}
	letter := &models.Letter{
		Number:    fmt.Sprintf("%03d/ORG/%d", gofakeit.Number(1, 999), time.Now().Year()),
		Subject:   strings.TrimSuffix(gofakeit.Sentence(6), "."),
		Body:      gofakeit.Paragraph(1, 3, 10, "\n"),
		Direction: direction,
		OwnerID:   owner.ID,
	}
	org := letterOrgs[f.rng.Intn(len(letterOrgs))]
	if direction == models.LetterDirectionIncoming {
		letter.Sender = org
		letter.Recipient = "Secretariat"
		received := f.pastTime()
		letter.ReceivedAt = &received
	} else {
		letter.Sender = "Secretariat"
		letter.Recipient = org
	}
	for _, override := range overrides {
		override(letter)
	}
	if f.opts.DryRun {
		f.nextID++
		letter.ID = f.nextID
	}
	if err := f.persist(letter, fmt.Sprintf("CreateLetter: %s %q owner=%d", letter.Direction, letter.Number, letter.OwnerID)); err != nil {
		return nil, err
	}
	return letter, nil
}

// CreateWorkProgram persists a sample work program owned by the given user.
func (f *Factory) CreateWorkProgram(owner *models.User, overrides ...func(*models.WorkProgram)) (*models.WorkProgram, error) {
	wp := &models.WorkProgram{
		Name:        strings.TrimSuffix(gofakeit.Sentence(4), "."),
		Description: gofakeit.Paragraph(1, 2, 10, "\n"),
		Division:    divisions[f.rng.Intn(len(divisions))],
		Period:      fmt.Sprintf("%d-Q%d", time.Now().Year(), 1+f.rng.Intn(4)),
		BudgetCents: int64(gofakeit.Number(100000, 50000000)),
		OwnerID:     owner.ID,
	}
	for _, override := range overrides {
		override(wp)
	}
	if f.opts.DryRun {
		f.nextID++
		wp.ID = f.nextID
	}
	if err := f.persist(wp, fmt.Sprintf("CreateWorkProgram: %q division=%s owner=%d", wp.Name, wp.Division, wp.OwnerID)); err != nil {
		return nil, err
	}
	return wp, nil
}

// CreateApproval opens an approval for the given parent and sets it to the
// requested status. Rejected and cancelled approvals get a review note,
// matching what the transition endpoints would have recorded.
func (f *Factory) CreateApproval(entityType models.ApprovalEntityType, parentID uint, requester *models.User, status models.ApprovalStatus) (*models.Approval, error) {
	approval, err := models.NewApproval(entityType, parentID, requester.ID)
	if err != nil {
		return nil, err
	}
	approval.Status = status
	switch status {
	case models.ApprovalStatusRejected, models.ApprovalStatusCancelled:
		approval.Note = reviewNotes[f.rng.Intn(len(reviewNotes))]
	}
	if f.opts.DryRun {
		f.nextID++
		approval.ID = f.nextID
	}
	if err := f.persist(approval, fmt.Sprintf("CreateApproval: %s parent=%d status=%s", entityType, parentID, status)); err != nil {
		return nil, err
	}
	return approval, nil
}

// randomStatus picks an approval status with a pending-heavy distribution so
// the review queue always has work in it.
func (f *Factory) randomStatus() models.ApprovalStatus {
	switch f.rng.Intn(10) {
	case 0, 1:
		return models.ApprovalStatusApproved
	case 2:
		return models.ApprovalStatusRejected
	case 3:
		return models.ApprovalStatusCancelled
	default:
		return models.ApprovalStatusPending
	}
}
