// internal/tests/settlement_flow_test.go
package tests

import (
	"os"
	"testing"

	"github.com/stretchr/testify/suite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/settly-kr/settly-backend/internal/database"
	"github.com/settly-kr/settly-backend/internal/models"
	"github.com/settly-kr/settly-backend/internal/services"
)

// SettlementFlowTestSuite runs the preview/apply/delete pipeline against a
// real Postgres instance. Set TEST_DATABASE_URL to enable it.
type SettlementFlowTestSuite struct {
	suite.Suite
	db *gorm.DB

	products   *services.ProductService
	stores     *services.StoreService
	inventory  *services.InventoryService
	settlement *services.SettlementService

	user    models.User
	store   *models.Store
	product *models.Product
}

func (s *SettlementFlowTestSuite) SetupSuite() {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		s.T().Skip("TEST_DATABASE_URL not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	s.Require().NoError(err)
	s.db = db

	s.Require().NoError(database.RunMigrations(db))

	s.products = services.NewProductService(db)
	s.stores = services.NewStoreService(db)
	s.inventory = services.NewInventoryService(db)
	s.settlement = services.NewSettlementService(db, s.stores, s.products, s.inventory, nil)
}

func (s *SettlementFlowTestSuite) SetupTest() {
	// Wipe everything between tests; order respects foreign keys.
	for _, model := range []interface{}{
		&models.SettlementLine{},
		&models.SettlementHeader{},
		&models.InventoryItem{},
		&models.MarketplaceSetting{},
		&models.Product{},
		&models.Store{},
		&models.User{},
	} {
		s.Require().NoError(s.db.Unscoped().Where("1 = 1").Delete(model).Error)
	}

	user := models.User{
		Username: "flowtester",
		Email:    "flow@settly.kr",
		UserType: models.UserTypeOwner,
		Status:   models.UserStatusActive,
	}
	s.Require().NoError(user.SetPassword("Flow123!@#"))
	s.Require().NoError(s.db.Create(&user).Error)
	s.user = user

	rate := 25.0
	store, err := s.stores.CreateStore(user.ID, &services.CreateStoreRequest{
		Name:           "연남 소품샵",
		CommissionRate: &rate,
	})
	s.Require().NoError(err)
	s.store = store

	product, err := s.products.CreateProduct(user.ID, &services.CreateProductRequest{
		Name:    "머그컵",
		Price:   12000,
		Barcode: "880001",
	})
	s.Require().NoError(err)
	s.product = product
}

func (s *SettlementFlowTestSuite) TestPreviewApplyAndNumbers() {
	preview, err := s.settlement.Preview(s.user.ID, &services.PreviewRequest{
		StoreName:   "연남 소품샵",
		PeriodMonth: "2026-07",
		Filename:    "july.csv",
		Data:        []byte("barcode,sold_qty,amount\n880001,5,6500\n"),
	})
	s.Require().NoError(err)
	s.Require().Len(preview.Rows, 1)
	s.Equal("ok", preview.Rows[0].Status)

	headers, err := s.settlement.Apply(s.user.ID, &services.ApplyRequest{
		Rows:           preview.Rows,
		SourceFilename: "july.csv",
	})
	s.Require().NoError(err)
	s.Require().Len(headers, 1)

	header := headers[0]
	s.Equal("2026-07", header.PeriodMonth)
	s.Equal(int64(6500), header.GrossAmount)
	s.Equal(0.25, header.CommissionRate)
	s.Equal(int64(1625), header.CommissionAmount)
	s.Equal(int64(4875), header.NetAmount)
	s.Equal(1, header.RowsCount)
	s.Equal(models.SettlementStatusDraft, header.Status)
}

func (s *SettlementFlowTestSuite) TestReapplyReplacesLines() {
	preview, err := s.settlement.Preview(s.user.ID, &services.PreviewRequest{
		StoreName:   "연남 소품샵",
		PeriodMonth: "2026-07",
		Filename:    "july.csv",
		Data:        []byte("barcode,sold_qty,amount\n880001,5,6500\n"),
	})
	s.Require().NoError(err)

	first, err := s.settlement.Apply(s.user.ID, &services.ApplyRequest{Rows: preview.Rows})
	s.Require().NoError(err)

	// Same store and period again with different numbers.
	preview2, err := s.settlement.Preview(s.user.ID, &services.PreviewRequest{
		StoreName:   "연남 소품샵",
		PeriodMonth: "2026-07",
		Filename:    "july_fixed.csv",
		Data:        []byte("barcode,sold_qty,amount\n880001,2,2600\n"),
	})
	s.Require().NoError(err)

	second, err := s.settlement.Apply(s.user.ID, &services.ApplyRequest{Rows: preview2.Rows})
	s.Require().NoError(err)

	// The header row is upserted, not duplicated.
	s.Equal(first[0].ID, second[0].ID)

	var lineCount int64
	s.Require().NoError(s.db.Model(&models.SettlementLine{}).
		Where("settlement_id = ?", second[0].ID).
		Count(&lineCount).Error)
	s.Equal(int64(1), lineCount)

	reloaded, err := s.settlement.GetSettlement(s.user.ID, second[0].ID)
	s.Require().NoError(err)
	s.Equal(int64(2600), reloaded.GrossAmount)
	s.Require().Len(reloaded.Lines, 1)
	s.Equal(2, reloaded.Lines[0].QtySold)
}

func (s *SettlementFlowTestSuite) TestInventoryDeltasAndRestore() {
	_, err := s.inventory.SetOnHand(s.user.ID, s.store.ID, s.product.ID,
		&services.SetOnHandRequest{OnHandQty: 10})
	s.Require().NoError(err)

	preview, err := s.settlement.Preview(s.user.ID, &services.PreviewRequest{
		StoreName:   "연남 소품샵",
		PeriodMonth: "2026-07",
		Filename:    "july.csv",
		Data:        []byte("barcode,sold_qty,amount\n880001,5,6500\n"),
	})
	s.Require().NoError(err)

	// Inventory writes need an explicit confirmation first.
	_, err = s.settlement.Apply(s.user.ID, &services.ApplyRequest{
		Rows:             preview.Rows,
		ApplyToInventory: true,
	})
	s.Require().Error(err)

	headers, err := s.settlement.Apply(s.user.ID, &services.ApplyRequest{
		Rows:             preview.Rows,
		ApplyToInventory: true,
		ConfirmInventory: true,
	})
	s.Require().NoError(err)

	onHand, err := s.inventory.GetOnHand(s.store.ID, s.product.ID)
	s.Require().NoError(err)
	s.Equal(5, onHand)

	// Deleting with restore puts the sold quantity back.
	s.Require().NoError(s.settlement.Delete(s.user.ID, headers[0].ID, true))

	onHand, err = s.inventory.GetOnHand(s.store.ID, s.product.ID)
	s.Require().NoError(err)
	s.Equal(10, onHand)

	_, err = s.settlement.GetSettlement(s.user.ID, headers[0].ID)
	s.Error(err)
}

func (s *SettlementFlowTestSuite) TestDeleteFailsWhenSettlementAlreadyGone() {
	preview, err := s.settlement.Preview(s.user.ID, &services.PreviewRequest{
		StoreName:   "연남 소품샵",
		PeriodMonth: "2026-07",
		Filename:    "july.csv",
		Data:        []byte("barcode,sold_qty,amount\n880001,5,6500\n"),
	})
	s.Require().NoError(err)

	headers, err := s.settlement.Apply(s.user.ID, &services.ApplyRequest{Rows: preview.Rows})
	s.Require().NoError(err)
	headerID := headers[0].ID

	second, err := gorm.Open(postgres.Open(os.Getenv("TEST_DATABASE_URL")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	s.Require().NoError(err)

	// Remove the settlement through a second connection after the delete
	// transaction has loaded the header but before it issues its own
	// deletes, so the header delete matches zero rows.
	raced := false
	err = s.db.Callback().Delete().Before("gorm:delete").Register("settlement_vanishes", func(db *gorm.DB) {
		if raced || db.Statement.Table != "settlement_lines" {
			return
		}
		raced = true
		s.Require().NoError(second.Unscoped().
			Where("settlement_id = ?", headerID).
			Delete(&models.SettlementLine{}).Error)
		s.Require().NoError(second.Unscoped().
			Where("id = ?", headerID).
			Delete(&models.SettlementHeader{}).Error)
	})
	s.Require().NoError(err)
	defer s.db.Callback().Delete().Remove("settlement_vanishes")

	err = s.settlement.Delete(s.user.ID, headerID, false)
	s.Require().True(raced)
	s.Require().Error(err)
	s.Contains(err.Error(), "삭제된 행이 없습니다")
}

func (s *SettlementFlowTestSuite) TestApplyRejectsErrorRows() {
	preview, err := s.settlement.Preview(s.user.ID, &services.PreviewRequest{
		StoreName:   "연남 소품샵",
		PeriodMonth: "2026-07",
		Filename:    "july.csv",
		Data:        []byte("barcode,sold_qty,amount\n999999,5,6500\n"),
	})
	s.Require().NoError(err)
	s.Equal("error", preview.Rows[0].Status)

	_, err = s.settlement.Apply(s.user.ID, &services.ApplyRequest{Rows: preview.Rows})
	s.Require().Error(err)

	// Ignoring the broken row lets apply proceed, with nothing left to write.
	preview.Rows[0].Ignored = true
	_, err = s.settlement.Apply(s.user.ID, &services.ApplyRequest{Rows: preview.Rows})
	s.Require().Error(err) // no applicable rows
}

func TestSettlementFlowSuite(t *testing.T) {
	suite.Run(t, new(SettlementFlowTestSuite))
}
