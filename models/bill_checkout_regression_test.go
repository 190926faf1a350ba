package models_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/shop_backend/config"
	"bitbucket.org/mmdatafocus/shop_backend/models"
	"bitbucket.org/mmdatafocus/shop_backend/utils"
	"github.com/shopspring/decimal"
)

func setupIntegrationEnv(t *testing.T) {
	t.Helper()
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "shop_test")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	models.MigrateTable()
}

func adminContext(id int) context.Context {
	ctx := utils.SetUserIdInContext(context.Background(), id)
	return utils.SetUserRoleInContext(ctx, utils.RoleAdmin)
}

func clientContext(id int) context.Context {
	ctx := utils.SetUserIdInContext(context.Background(), id)
	return utils.SetUserRoleInContext(ctx, utils.RoleClient)
}

func mustCreateProduct(t *testing.T, ctx context.Context, categoryId int, name string, price string, stock int, minimum int) *models.Product {
	t.Helper()
	product, err := models.CreateProduct(ctx, &models.NewProduct{
		CategoryId:        categoryId,
		Name:              name,
		Price:             decimal.RequireFromString(price),
		QuantityInStock:   stock,
		MinimumStockLevel: &minimum,
	})
	if err != nil {
		t.Fatalf("CreateProduct %s: %v", name, err)
	}
	return product
}

func currentStock(t *testing.T, productId int) int {
	t.Helper()
	var product models.Product
	if err := config.GetDB().First(&product, productId).Error; err != nil {
		t.Fatalf("read product %d: %v", productId, err)
	}
	return product.QuantityInStock
}

func alertCount(t *testing.T, productId int) int64 {
	t.Helper()
	var count int64
	if err := config.GetDB().Model(&models.StockAlert{}).
		Where("product_id = ?", productId).Count(&count).Error; err != nil {
		t.Fatalf("count alerts for product %d: %v", productId, err)
	}
	return count
}

// Checkout must be all-or-nothing: stock decrements, bill rows, alert rows and
// the bill-number allocation either all commit together or all roll back.
func TestCreateBill_CheckoutIntegration(t *testing.T) {
	setupIntegrationEnv(t)
	adminCtx := adminContext(1)

	category, err := models.CreateCategory(adminCtx, &models.NewCategory{Name: "Electronics"})
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	keyboard := mustCreateProduct(t, adminCtx, category.ID, "Keyboard", "25.50", 10, 3)
	mouse := mustCreateProduct(t, adminCtx, category.ID, "Mouse", "10.00", 5, 4)

	client, err := models.CreateClient(context.Background(), &models.NewClient{
		Username:    "alice",
		Email:       "alice@shop.test",
		PhoneNumber: "+16502530000",
		Password:    "supersecret",
	})
	if err != nil {
		t.Fatalf("CreateClient: %v", err)
	}
	clientCtx := clientContext(client.ID)

	bill, err := models.CreateBill(clientCtx, &models.NewBill{Items: []models.NewBillItem{
		{ProductId: keyboard.ID, Quantity: 2},
		{ProductId: mouse.ID, Quantity: 2},
	}})
	if err != nil {
		t.Fatalf("CreateBill: %v", err)
	}

	dateKey := time.Now().UTC().Format("20060102")
	if bill.BillNumber != models.FormatBillNumber(dateKey, 1) {
		t.Fatalf("unexpected bill number %q", bill.BillNumber)
	}
	if !bill.TotalAmount.Equal(decimal.RequireFromString("71.00")) {
		t.Fatalf("expected total 71.00, got %s", bill.TotalAmount)
	}
	if !bill.TotalRemaining.Equal(bill.TotalAmount) || !bill.TotalPaid.IsZero() {
		t.Fatalf("expected unpaid totals, got paid=%s remaining=%s", bill.TotalPaid, bill.TotalRemaining)
	}
	if bill.Status != models.BillStatusNotPaid {
		t.Fatalf("expected status not_paid, got %s", bill.Status)
	}
	if len(bill.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(bill.Items))
	}
	if bill.Items[0].ProductName != "Keyboard" || !bill.Items[0].UnitPrice.Equal(decimal.RequireFromString("25.50")) {
		t.Fatalf("expected price snapshot on item, got %+v", bill.Items[0])
	}

	if got := currentStock(t, keyboard.ID); got != 8 {
		t.Fatalf("expected keyboard stock 8, got %d", got)
	}
	if got := currentStock(t, mouse.ID); got != 3 {
		t.Fatalf("expected mouse stock 3, got %d", got)
	}

	// mouse dropped to 3 <= minimum 4; keyboard stayed above its minimum
	if got := alertCount(t, mouse.ID); got != 1 {
		t.Fatalf("expected one open alert for mouse, got %d", got)
	}
	if got := alertCount(t, keyboard.ID); got != 0 {
		t.Fatalf("expected no alert for keyboard, got %d", got)
	}

	t.Run("failed line rolls back the whole bill", func(t *testing.T) {
		_, err := models.CreateBill(clientCtx, &models.NewBill{Items: []models.NewBillItem{
			{ProductId: keyboard.ID, Quantity: 2},
			{ProductId: mouse.ID, Quantity: 99},
		}})
		var insufficient *utils.InsufficientStockError
		if !errors.As(err, &insufficient) {
			t.Fatalf("expected InsufficientStockError, got %v", err)
		}
		if insufficient.Available != 3 {
			t.Fatalf("expected available 3, got %d", insufficient.Available)
		}

		// the first line's decrement must not survive
		if got := currentStock(t, keyboard.ID); got != 8 {
			t.Fatalf("expected keyboard stock unchanged at 8, got %d", got)
		}
		var billCount int64
		if err := config.GetDB().Model(&models.Bill{}).Count(&billCount).Error; err != nil {
			t.Fatalf("count bills: %v", err)
		}
		if billCount != 1 {
			t.Fatalf("expected 1 bill after rollback, got %d", billCount)
		}
	})

	t.Run("bill numbers stay sequential per day", func(t *testing.T) {
		second, err := models.CreateBill(clientCtx, &models.NewBill{Items: []models.NewBillItem{
			{ProductId: keyboard.ID, Quantity: 1},
		}})
		if err != nil {
			t.Fatalf("CreateBill: %v", err)
		}
		// the rolled-back attempt above must not burn a sequence number
		if second.BillNumber != models.FormatBillNumber(dateKey, 2) {
			t.Fatalf("expected sequence 2, got %q", second.BillNumber)
		}
	})

	t.Run("clients cannot read each other's bills", func(t *testing.T) {
		other, err := models.CreateClient(context.Background(), &models.NewClient{
			Username:    "bob",
			Email:       "bob@shop.test",
			PhoneNumber: "+16502530000",
			Password:    "supersecret",
		})
		if err != nil {
			t.Fatalf("CreateClient: %v", err)
		}

		if _, err := models.GetBill(clientContext(other.ID), bill.ID); err == nil {
			t.Fatalf("expected access error for foreign bill")
		} else {
			var authz *utils.AuthorizationError
			if !errors.As(err, &authz) {
				t.Fatalf("expected AuthorizationError, got %v", err)
			}
		}
		if _, err := models.GetBill(adminContext(1), bill.ID); err != nil {
			t.Fatalf("admin read: %v", err)
		}
		if _, err := models.GetBill(clientCtx, bill.ID); err != nil {
			t.Fatalf("owner read: %v", err)
		}
	})

	t.Run("alert clears on recovery and refreshes on repeat breach", func(t *testing.T) {
		if _, err := models.SetProductStock(adminCtx, mouse.ID, 10); err != nil {
			t.Fatalf("SetProductStock: %v", err)
		}
		if got := alertCount(t, mouse.ID); got != 0 {
			t.Fatalf("expected alert cleared after recovery, got %d", got)
		}

		if _, err := models.SetProductStock(adminCtx, mouse.ID, 2); err != nil {
			t.Fatalf("SetProductStock: %v", err)
		}
		if got := alertCount(t, mouse.ID); got != 1 {
			t.Fatalf("expected one open alert after repeat breach, got %d", got)
		}
		var alert models.StockAlert
		if err := config.GetDB().Where("product_id = ?", mouse.ID).First(&alert).Error; err != nil {
			t.Fatalf("read alert: %v", err)
		}
		if alert.StockLevel != 2 {
			t.Fatalf("expected refreshed snapshot 2, got %d", alert.StockLevel)
		}
	})

	t.Run("summary aggregates committed bills only", func(t *testing.T) {
		summary, err := models.GetBillSummary(adminContext(1))
		if err != nil {
			t.Fatalf("GetBillSummary: %v", err)
		}
		if summary.TotalBills != 2 {
			t.Fatalf("expected 2 bills in summary, got %d", summary.TotalBills)
		}
		if !summary.TotalRevenue.Equal(decimal.RequireFromString("96.50")) {
			t.Fatalf("expected revenue 96.50, got %s", summary.TotalRevenue)
		}
		if summary.UnpaidBills != 2 || summary.PaidBills != 0 {
			t.Fatalf("unexpected paid/unpaid split: %+v", summary)
		}
	})
}

// Two concurrent checkouts for the same product must never jointly oversell;
// with stock 5 and two lines of 3, exactly one succeeds.
func TestCreateBill_ConcurrentCheckoutsNeverOversell(t *testing.T) {
	setupIntegrationEnv(t)
	adminCtx := adminContext(1)

	category, err := models.CreateCategory(adminCtx, &models.NewCategory{Name: "Audio"})
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	headset := mustCreateProduct(t, adminCtx, category.ID, "Headset", "40.00", 5, 1)

	client, err := models.CreateClient(context.Background(), &models.NewClient{
		Username:    "carol",
		Email:       "carol@shop.test",
		PhoneNumber: "+16502530000",
		Password:    "supersecret",
	})
	if err != nil {
		t.Fatalf("CreateClient: %v", err)
	}
	clientCtx := clientContext(client.ID)

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := models.CreateBill(clientCtx, &models.NewBill{Items: []models.NewBillItem{
				{ProductId: headset.ID, Quantity: 3},
			}})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes, stockFailures int
	for err := range results {
		if err == nil {
			successes++
			continue
		}
		var insufficient *utils.InsufficientStockError
		if errors.As(err, &insufficient) {
			stockFailures++
		} else {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 1 || stockFailures != 1 {
		t.Fatalf("expected exactly one success and one stock failure, got %d/%d", successes, stockFailures)
	}
	if got := currentStock(t, headset.ID); got != 2 {
		t.Fatalf("expected final stock 2, got %d", got)
	}
}

func startRedisContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("shop-test-redis-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-p", "127.0.0.1:0:6379",
		"redis:7-alpine",
	)
	if err != nil {
		t.Fatalf("start redis container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "6379/tcp")
	if err != nil {
		t.Fatalf("redis docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "redis-cli", "ping")
		if err == nil {
			return name, port
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("redis did not become ready")
	return "", ""
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("shop-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=shop_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	// Example: "127.0.0.1:49154\n"
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}
