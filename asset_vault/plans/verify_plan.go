package plans

import (
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"time"
)

var (
	ErrInvalidPlan        = errors.New("plan entitlement is invalid")
	ErrExpiredPlan        = errors.New("plan entitlement is expired")
	ErrFieldLimitExceeded = errors.New("maximum custom field limit for plan exceeded")
)

// PlanPayload is the signed body of a plan entitlement file. Limits are
// strings because the signing service serializes everything as strings.
type PlanPayload struct {
	PlanKey          string `json:"planKey"`
	CustomFieldLimit string `json:"customFieldLimit"`
	ExpiryDate       string `json:"expiryDate"`
}

func (p *PlanPayload) Expiry() (time.Time, error) {
	layout := "2006-01-02T15:04:05-07:00"
	expiry, err := time.Parse(layout, p.ExpiryDate)
	if err != nil {
		slog.Error("unable to parse plan expiry", "error", err)
		return time.Time{}, fmt.Errorf("unable to parse expiry in plan entitlement: %v", err)
	}
	return expiry, nil
}

type PlanEntitlement struct {
	Plan      PlanPayload `json:"plan"`
	Signature string      `json:"signature"`
}

// Verifier checks the signed plan entitlement file provisioned with the
// deployment. The file is re-read on every check so it can be swapped without
// restarting the service.
type Verifier struct {
	publicKey *rsa.PublicKey
	planPath  string
}

func NewVerifier(publicKeyPem []byte, planPath string) *Verifier {
	block, _ := pem.Decode(publicKeyPem)
	if block == nil {
		log.Panicf("plan entitlement public key pem is corrupted")
	}

	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		log.Panicf("plan entitlement error: parsing public key: %v", err)
	}

	rsaKey, ok := key.(*rsa.PublicKey)
	if !ok {
		log.Panicf("plan entitlement error: key must be valid rsa key")
	}

	v := &Verifier{publicKey: rsaKey, planPath: planPath}

	if _, err := v.Verify(0); err != nil {
		log.Panicf("must have valid plan entitlement for initialization: %v", err)
	}

	return v
}

func (v *Verifier) loadEntitlement() (PlanEntitlement, error) {
	var entitlement PlanEntitlement

	file, err := os.Open(v.planPath)
	if err != nil {
		slog.Error("error opening plan entitlement file", "error", err)
		return entitlement, fmt.Errorf("unable to access plan entitlement: %v", err)
	}
	defer file.Close()

	err = json.NewDecoder(file).Decode(&entitlement)
	if err != nil {
		slog.Error("unable to parse plan entitlement file", "error", err)
		return entitlement, fmt.Errorf("unable to parse plan entitlement: %v", err)
	}

	return entitlement, nil
}

// Verify checks the entitlement signature and expiry, and that the tenant's
// current custom field count leaves room for another field.
func (v *Verifier) Verify(currCustomFields int) (PlanPayload, error) {
	entitlement, err := v.loadEntitlement()
	if err != nil {
		return PlanPayload{}, err
	}

	signature, err := base64.StdEncoding.DecodeString(entitlement.Signature)
	if err != nil {
		slog.Error("error decoding plan entitlement signature", "error", err)
		return PlanPayload{}, fmt.Errorf("unable to decode plan entitlement signature: %v", err)
	}

	message, err := json.Marshal(entitlement.Plan)
	if err != nil {
		return PlanPayload{}, fmt.Errorf("error encoding message: %v", err)
	}

	hash := sha256.New()
	hash.Write(message)

	matchErr := rsa.VerifyPKCS1v15(v.publicKey, crypto.SHA256, hash.Sum(nil), signature)
	if matchErr != nil {
		slog.Error("plan entitlement signature doesn't match", "error", matchErr)
		return PlanPayload{}, ErrInvalidPlan
	}

	expiry, err := entitlement.Plan.Expiry()
	if err != nil {
		return PlanPayload{}, err
	}

	if expiry.Before(time.Now().UTC()) {
		slog.Error("plan entitlement is expired", "expiry", expiry)
		return PlanPayload{}, ErrExpiredPlan
	}

	fieldLimit, err := strconv.Atoi(entitlement.Plan.CustomFieldLimit)
	if err != nil {
		slog.Error("plan entitlement has invalid custom field limit", "error", err)
		return PlanPayload{}, fmt.Errorf("invalid custom field limit: %v", err)
	}

	if fieldLimit <= currCustomFields {
		return PlanPayload{}, ErrFieldLimitExceeded
	}

	return entitlement.Plan, nil
}
