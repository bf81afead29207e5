package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/HSouheill/resellhub_backend/config"
	"github.com/HSouheill/resellhub_backend/models"
)

const (
	payEndpoint    = "/pg/v1/pay"
	statusEndpoint = "/pg/v1/status"
)

var (
	// ErrGatewayUnavailable wraps transport failures; callers report the payment as processing
	ErrGatewayUnavailable   = errors.New("payment gateway unreachable")
	ErrGatewayNotConfigured = errors.New("payment gateway credentials are not configured")
	ErrInvalidSignature     = errors.New("invalid gateway signature")
)

// PaymentGateway is the subset of the gateway used by the payment flow
type PaymentGateway interface {
	Pay(ctx context.Context, req models.PhonePePayRequest) (string, error)
	Status(ctx context.Context, merchantTransactionID string) (*models.PaymentStatusData, error)
	VerifyCallback(xVerify, response string) (*models.PaymentStatusData, error)
	MerchantID() string
}

// PhonePeService signs and sends requests to the PhonePe PG API
type PhonePeService struct {
	host       string
	merchantID string
	saltKey    string
	saltIndex  string
	debug      bool
	client     *http.Client
}

// NewPhonePeService creates a gateway client from config
func NewPhonePeService(cfg config.PhonePeConfig) *PhonePeService {
	return &PhonePeService{
		host:       strings.TrimRight(cfg.Host, "/"),
		merchantID: cfg.MerchantID,
		saltKey:    cfg.SaltKey,
		saltIndex:  cfg.SaltIndex,
		debug:      cfg.Env == "sandbox" || os.Getenv("PHONEPE_DEBUG") == "true",
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (s *PhonePeService) MerchantID() string {
	return s.merchantID
}

// checksum is hex(sha256(data + saltKey)) + "###" + saltIndex
func (s *PhonePeService) checksum(data string) string {
	sum := sha256.Sum256([]byte(data + s.saltKey))
	return hex.EncodeToString(sum[:]) + "###" + s.saltIndex
}

// PaySignature returns the base64 payload and its X-VERIFY header
func (s *PhonePeService) PaySignature(req models.PhonePePayRequest) (string, string, error) {
	raw, err := json.Marshal(req)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal request: %w", err)
	}
	payload := base64.StdEncoding.EncodeToString(raw)
	return payload, s.checksum(payload + payEndpoint), nil
}

// StatusSignature returns the status path and its X-VERIFY header
func (s *PhonePeService) StatusSignature(merchantTransactionID string) (string, string) {
	path := fmt.Sprintf("%s/%s/%s", statusEndpoint, s.merchantID, merchantTransactionID)
	return path, s.checksum(path)
}

func (s *PhonePeService) configured() bool {
	return s.host != "" && s.merchantID != "" && s.saltKey != ""
}

// makeRequest performs a signed request and decodes the gateway envelope
func (s *PhonePeService) makeRequest(ctx context.Context, method, path, xVerify string, payload interface{}) (*models.PhonePeResponse, error) {
	if !s.configured() {
		return nil, ErrGatewayNotConfigured
	}
	url := s.host + path

	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-VERIFY", xVerify)
	if method == http.MethodGet {
		req.Header.Set("X-MERCHANT-ID", s.merchantID)
	}

	if s.debug {
		log.Printf("PhonePe API Request: %s %s", method, url)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", ErrGatewayUnavailable, err)
	}

	if s.debug {
		log.Printf("PhonePe API Response (%d): %s", resp.StatusCode, string(respBody))
	}

	var ppResp models.PhonePeResponse
	if err := json.Unmarshal(respBody, &ppResp); err != nil {
		return nil, fmt.Errorf("failed to parse response (status %d): %w", resp.StatusCode, err)
	}
	if !ppResp.Success && resp.StatusCode >= http.StatusInternalServerError {
		return &ppResp, fmt.Errorf("%w: %s", ErrGatewayUnavailable, ppResp.Code)
	}
	return &ppResp, nil
}

// Pay initiates a hosted checkout and returns the redirect URL
func (s *PhonePeService) Pay(ctx context.Context, req models.PhonePePayRequest) (string, error) {
	payload, xVerify, err := s.PaySignature(req)
	if err != nil {
		return "", err
	}

	resp, err := s.makeRequest(ctx, http.MethodPost, payEndpoint, xVerify, map[string]string{"request": payload})
	if err != nil {
		return "", err
	}
	if !resp.Success {
		log.Printf("PhonePe pay rejected: code=%s message=%s", resp.Code, resp.Message)
		return "", fmt.Errorf("phonepe error: %s", resp.Code)
	}

	if instrument, ok := resp.Data["instrumentResponse"].(map[string]interface{}); ok {
		if redirect, ok := instrument["redirectInfo"].(map[string]interface{}); ok {
			if url, ok := redirect["url"].(string); ok && url != "" {
				return url, nil
			}
		}
	}
	return "", fmt.Errorf("failed to parse redirect URL from response")
}

// Status asks the gateway for the state of a transaction
func (s *PhonePeService) Status(ctx context.Context, merchantTransactionID string) (*models.PaymentStatusData, error) {
	path, xVerify := s.StatusSignature(merchantTransactionID)
	resp, err := s.makeRequest(ctx, http.MethodGet, path, xVerify, nil)
	if err != nil {
		return nil, err
	}
	return statusFromResponse(merchantTransactionID, resp), nil
}

// VerifyCallback checks the callback signature and decodes the base64 response body
func (s *PhonePeService) VerifyCallback(xVerify, response string) (*models.PaymentStatusData, error) {
	if s.saltKey == "" {
		return nil, ErrGatewayNotConfigured
	}
	if !strings.EqualFold(strings.TrimSpace(xVerify), s.checksum(response)) {
		return nil, ErrInvalidSignature
	}

	raw, err := base64.StdEncoding.DecodeString(response)
	if err != nil {
		return nil, fmt.Errorf("failed to decode callback: %w", err)
	}
	var ppResp models.PhonePeResponse
	if err := json.Unmarshal(raw, &ppResp); err != nil {
		return nil, fmt.Errorf("failed to parse callback: %w", err)
	}
	txnID, _ := ppResp.Data["merchantTransactionId"].(string)
	if txnID == "" {
		return nil, fmt.Errorf("callback without merchantTransactionId")
	}
	return statusFromResponse(txnID, &ppResp), nil
}

// statusFromResponse maps the gateway envelope onto PENDING/COMPLETED/FAILED
func statusFromResponse(txnID string, resp *models.PhonePeResponse) *models.PaymentStatusData {
	data := &models.PaymentStatusData{
		MerchantTransactionID: txnID,
		Code:                  resp.Code,
	}
	if id, ok := resp.Data["transactionId"].(string); ok {
		data.TransactionID = id
	}
	if amount, ok := resp.Data["amount"].(float64); ok {
		data.Amount = int64(amount)
	}
	state, _ := resp.Data["state"].(string)

	switch {
	case strings.EqualFold(state, models.PaymentStatusCompleted) || resp.Code == "PAYMENT_SUCCESS":
		data.State = models.PaymentStatusCompleted
	case strings.EqualFold(state, models.PaymentStatusFailed),
		resp.Code == "PAYMENT_ERROR", resp.Code == "PAYMENT_DECLINED",
		resp.Code == "TRANSACTION_NOT_FOUND", resp.Code == "AUTHORIZATION_FAILED":
		data.State = models.PaymentStatusFailed
	default:
		data.State = models.PaymentStatusPending
	}
	return data
}

// ToPaise converts a rupee amount to the gateway's integer minor unit
func ToPaise(rupees float64) int64 {
	return int64(rupees*100 + 0.5)
}
