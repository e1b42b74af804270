package auth

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"oraclebook/internal/models"
)

func setupRoles(t *testing.T) *RoleService {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	if err := db.AutoMigrate(&models.RoleGrant{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return NewRoleService(db)
}

func TestGrantAndCheckRoles(t *testing.T) {
	roles := setupRoles(t)
	ctx := context.Background()

	can, err := roles.CanCreateMarket(ctx, "wallet1")
	if err != nil {
		t.Fatalf("CanCreateMarket failed: %v", err)
	}
	if can {
		t.Error("ungranted wallet must not create markets")
	}

	if err := roles.GrantRole(ctx, "wallet1", models.RoleMarketMaker, "admin"); err != nil {
		t.Fatalf("GrantRole failed: %v", err)
	}
	// Granting twice is a no-op, not an error
	if err := roles.GrantRole(ctx, "wallet1", models.RoleMarketMaker, "admin"); err != nil {
		t.Fatalf("repeated GrantRole failed: %v", err)
	}

	can, _ = roles.CanCreateMarket(ctx, "wallet1")
	if !can {
		t.Error("granted wallet must create markets")
	}
	can, _ = roles.CanReportOutcome(ctx, "wallet1")
	if can {
		t.Error("market maker role must not imply oracle role")
	}
	isAdmin, _ := roles.IsAdmin(ctx, "wallet1")
	if isAdmin {
		t.Error("market maker role must not imply admin role")
	}

	if err := roles.GrantRole(ctx, "wallet1", "superuser", "admin"); err == nil {
		t.Error("expected error for unknown role name")
	}
}

func TestRevokeAndListRoles(t *testing.T) {
	roles := setupRoles(t)
	ctx := context.Background()

	for _, role := range []string{models.RoleMarketMaker, models.RoleOracle} {
		if err := roles.GrantRole(ctx, "wallet1", role, "admin"); err != nil {
			t.Fatalf("GrantRole(%s) failed: %v", role, err)
		}
	}

	granted, err := roles.ListRoles(ctx, "wallet1")
	if err != nil {
		t.Fatalf("ListRoles failed: %v", err)
	}
	sort.Strings(granted)
	if len(granted) != 2 || granted[0] != models.RoleMarketMaker || granted[1] != models.RoleOracle {
		t.Errorf("unexpected roles: %v", granted)
	}

	if err := roles.RevokeRole(ctx, "wallet1", models.RoleOracle); err != nil {
		t.Fatalf("RevokeRole failed: %v", err)
	}
	can, _ := roles.CanReportOutcome(ctx, "wallet1")
	if can {
		t.Error("revoked role must not pass the check")
	}
	can, _ = roles.CanCreateMarket(ctx, "wallet1")
	if !can {
		t.Error("revoking one role must not touch the other")
	}
}
