package main

import (
	"log"

	"storefront/internal/config"
	"storefront/internal/domain/model"
	"storefront/internal/handler"
	"storefront/internal/infra/db"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/server"
	"storefront/internal/usecase"

	"github.com/joho/godotenv"
)

func main() {
	// .envがなくても環境変数だけで動かせる
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	gormDB, err := db.Connect()
	if err != nil {
		log.Fatalf("db: %v", err)
	}

	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.Category{},
		&model.Product{},
		&model.Cart{},
		&model.CartItem{},
		&model.Order{},
		&model.OrderItem{},
		&model.Payment{},
		&model.WishlistItem{},
		&model.Review{},
		&model.AuditLog{},
		&model.InventoryAdjustment{},
	); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	rtRepo := infraRepo.NewRefreshTokenGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	categoryRepo := infraRepo.NewCategoryGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	inventoryRepo := infraRepo.NewInventoryGormRepository(gormDB)
	wishlistRepo := infraRepo.NewWishlistGormRepository(gormDB)
	reviewRepo := infraRepo.NewReviewGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	analyticsRepo := infraRepo.NewAnalyticsGormRepository(gormDB)
	txManager := infraRepo.NewTxManagerGorm(gormDB)

	pricing := usecase.OrderPricing{
		TaxRatePercent:   cfg.TaxRatePercent,
		ShippingFee:      cfg.ShippingFee,
		FreeShippingOver: cfg.FreeShippingOver,
	}

	//Usecase生成
	authUC := usecase.NewAuthUsecase(cfg, userRepo, rtRepo)
	productUC := usecase.NewProductUsecase(productRepo)
	categoryUC := usecase.NewCategoryUsecase(categoryRepo)
	cartUC := usecase.NewCartUsecase(txManager)
	wishlistUC := usecase.NewWishlistUsecase(wishlistRepo, productRepo)
	orderUC := usecase.NewOrderUsecase(txManager, pricing)
	paymentUC := usecase.NewPaymentUsecase(txManager)
	reviewUC := usecase.NewReviewUsecase(reviewRepo, productRepo)
	adminProductUC := usecase.NewAdminProductUsecase(productRepo, inventoryRepo, auditRepo)
	adminOrderUC := usecase.NewAdminOrderUsecase(txManager, auditRepo)
	adminCustomerUC := usecase.NewAdminCustomerUsecase(userRepo, orderRepo, auditRepo)
	analyticsUC := usecase.NewAnalyticsUsecase(analyticsRepo)

	//Handler生成
	deps := server.Deps{
		UserRepo: userRepo,

		Auth:     handler.NewAuthHandler(authUC),
		Product:  handler.NewProductHandler(productUC),
		Category: handler.NewCategoryHandler(categoryUC),
		Cart:     handler.NewCartHandler(cartUC),
		Wishlist: handler.NewWishlistHandler(wishlistUC),
		Order:    handler.NewOrderHandler(orderUC, paymentUC),
		Review:   handler.NewReviewHandler(reviewUC),

		AdminProduct:   handler.NewAdminProductHandler(adminProductUC),
		AdminCategory:  handler.NewAdminCategoryHandler(categoryUC),
		AdminOrder:     handler.NewAdminOrderHandler(adminOrderUC),
		AdminCustomer:  handler.NewAdminCustomerHandler(adminCustomerUC),
		AdminAnalytics: handler.NewAdminAnalyticsHandler(analyticsUC),
	}

	e := server.New(cfg, deps)
	if err := server.Start(e, cfg.Port); err != nil {
		log.Fatalf("server: %v", err)
	}
}
