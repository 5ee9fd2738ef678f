package tests

import (
	"bytes"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"brandvault/asset_vault/auth"
	"brandvault/asset_vault/metadata"
	"brandvault/asset_vault/plans"
	"brandvault/asset_vault/schema"
	"brandvault/asset_vault/services"

	"github.com/go-chi/chi/v5"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testEnv struct {
	assetVault services.AssetVault
	api        chi.Router
	db         *gorm.DB
}

const (
	adminUsername = "admin123"
	adminEmail    = "admin123@mail.com"
	adminPassword = "admin_password123"
)

func setupTestEnv(t *testing.T) *testEnv {
	return setupTestEnvWithPlan(t, nil)
}

func setupTestEnvWithPlan(t *testing.T, planVerifier *plans.Verifier) *testEnv {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatal(err)
	}

	err = db.AutoMigrate(schema.AllModels()...)
	if err != nil {
		t.Fatal(err)
	}

	userAuth, err := auth.NewBasicIdentityProvider(
		db,
		auth.NewAuditLogger(new(bytes.Buffer)),
		auth.BasicProviderArgs{
			Secret:        []byte("290zcv02ai249"),
			AdminUsername: adminUsername,
			AdminEmail:    adminEmail,
			AdminPassword: adminPassword,
		},
	)
	if err != nil {
		t.Fatal(err)
	}

	cache := metadata.NewSchemaCache(metadata.NewResolver(db), metadata.NewTTLCacheBackend(1000))

	assetVault := services.NewAssetVault(db, cache, planVerifier, userAuth)

	return &testEnv{assetVault: assetVault, api: assetVault.Routes(), db: db}
}

// testPlanVerifier builds a verifier over a freshly signed entitlement so plan
// limits can be exercised without the production signing service.
func testPlanVerifier(t *testing.T, customFieldLimit string) *plans.Verifier {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}

	plan := plans.PlanPayload{
		PlanKey:          "starter",
		CustomFieldLimit: customFieldLimit,
		ExpiryDate:       "2031-04-03T00:00:00+00:00",
	}

	message, err := json.Marshal(plan)
	if err != nil {
		t.Fatal(err)
	}
	hash := sha256.Sum256(message)
	signature, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, hash[:])
	if err != nil {
		t.Fatal(err)
	}

	entitlement := plans.PlanEntitlement{Plan: plan, Signature: base64.StdEncoding.EncodeToString(signature)}

	planPath := filepath.Join(t.TempDir(), "plan.json")
	file, err := os.Create(planPath)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()
	if err := json.NewEncoder(file).Encode(entitlement); err != nil {
		t.Fatal(err)
	}

	publicDer, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatal(err)
	}
	publicPem := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: publicDer})

	return plans.NewVerifier(publicPem, planPath)
}

func (t *testEnv) newClient() client {
	return client{api: t.api}
}

func (t *testEnv) newUser(username string) (client, error) {
	c := t.newClient()
	login, err := c.signup(username, username+"@mail.com", username+"_password")
	if err != nil {
		return client{}, err
	}

	err = c.login(login)
	if err != nil {
		return client{}, err
	}

	return c, nil
}

func (t *testEnv) adminClient() (client, error) {
	c := t.newClient()
	err := c.login(loginInfo{Email: adminEmail, Password: adminPassword})
	return c, err
}
