package github

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Sorosliu1029/follower-change/internal/constants"
	"github.com/Sorosliu1029/follower-change/internal/util"
	"github.com/Sorosliu1029/follower-change/pkg/errors"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"go.uber.org/zap"
)

// ResultsClient uploads workflow artifacts through the Actions results service,
// which is only reachable from inside a running workflow job.
type ResultsClient struct {
	baseURL    string
	token      util.Secret
	backendIDs backendIDs
	httpClient *http.Client
	logger     *zap.Logger
}

type backendIDs struct {
	RunID string
	JobID string
}

type createArtifactRequest struct {
	WorkflowRunBackendID    string  `json:"workflow_run_backend_id"`
	WorkflowJobRunBackendID string  `json:"workflow_job_run_backend_id"`
	Name                    string  `json:"name"`
	Version                 int     `json:"version"`
	ExpiresAt               *string `json:"expires_at,omitempty"`
}

type createArtifactResponse struct {
	OK              bool   `json:"ok"`
	SignedUploadURL string `json:"signed_upload_url"`
}

type finalizeArtifactRequest struct {
	WorkflowRunBackendID    string `json:"workflow_run_backend_id"`
	WorkflowJobRunBackendID string `json:"workflow_job_run_backend_id"`
	Name                    string `json:"name"`
	Size                    string `json:"size"`
	Hash                    string `json:"hash,omitempty"`
}

type finalizeArtifactResponse struct {
	OK         bool   `json:"ok"`
	ArtifactID string `json:"artifact_id"`
}

// UploadedArtifact acknowledges a finished upload.
type UploadedArtifact struct {
	ID   int64
	Name string
	Size int64
}

func NewResultsClient(resultsURL string, runtimeToken util.Secret, logger *zap.Logger) (*ResultsClient, error) {
	if resultsURL == "" {
		return nil, errors.NewValidationError("ACTIONS_RESULTS_URL is required for artifact upload", "resultsURL", resultsURL)
	}
	if runtimeToken.IsEmpty() {
		return nil, errors.NewValidationError("ACTIONS_RUNTIME_TOKEN is required for artifact upload", "runtimeToken", runtimeToken)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ids, err := parseBackendIDs(runtimeToken)
	if err != nil {
		return nil, err
	}

	return &ResultsClient{
		baseURL:    strings.TrimRight(resultsURL, "/") + "/",
		token:      runtimeToken,
		backendIDs: ids,
		httpClient: &http.Client{Timeout: constants.APIConfig.Timeout},
		logger:     logger,
	}, nil
}

// parseBackendIDs reads the run and job backend ids from the runtime token's
// scope claim, e.g. "Actions.Results:<run>:<job>". The token is not verified;
// the results service does that.
func parseBackendIDs(token util.Secret) (backendIDs, error) {
	parsed, err := jwt.ParseString(token.Reveal(), jwt.WithVerify(false), jwt.WithValidate(false))
	if err != nil {
		return backendIDs{}, errors.NewValidationError("malformed ACTIONS_RUNTIME_TOKEN", "runtimeToken", token)
	}

	raw, ok := parsed.Get("scp")
	if !ok {
		return backendIDs{}, errors.NewValidationError("runtime token has no scp claim", "runtimeToken", token)
	}
	scopes, ok := raw.(string)
	if !ok {
		return backendIDs{}, errors.NewValidationError("runtime token scp claim is not a string", "runtimeToken", token)
	}

	for _, scope := range strings.Fields(scopes) {
		parts := strings.Split(scope, ":")
		if len(parts) != 3 || parts[0] != "Actions.Results" {
			continue
		}
		return backendIDs{RunID: parts[1], JobID: parts[2]}, nil
	}
	return backendIDs{}, errors.NewValidationError("runtime token carries no Actions.Results scope", "runtimeToken", token)
}

// Upload creates the artifact, stores content as its zip and finalizes it.
func (c *ResultsClient) Upload(ctx context.Context, name string, content []byte, expiresAt *time.Time) (*UploadedArtifact, error) {
	create := createArtifactRequest{
		WorkflowRunBackendID:    c.backendIDs.RunID,
		WorkflowJobRunBackendID: c.backendIDs.JobID,
		Name:                    name,
		Version:                 constants.ArtifactConfig.Version,
	}
	if expiresAt != nil {
		formatted := expiresAt.UTC().Format(time.RFC3339)
		create.ExpiresAt = &formatted
	}

	var created createArtifactResponse
	if err := c.twirp(ctx, "CreateArtifact", create, &created); err != nil {
		return nil, err
	}
	if !created.OK || created.SignedUploadURL == "" {
		return nil, errors.NewAPIError("CreateArtifact was rejected", http.StatusOK, map[string]any{
			"artifact": name,
		})
	}

	if err := c.putBlob(ctx, created.SignedUploadURL, content); err != nil {
		return nil, err
	}

	sum := sha256.Sum256(content)
	finalize := finalizeArtifactRequest{
		WorkflowRunBackendID:    c.backendIDs.RunID,
		WorkflowJobRunBackendID: c.backendIDs.JobID,
		Name:                    name,
		Size:                    strconv.Itoa(len(content)),
		Hash:                    "sha256:" + hex.EncodeToString(sum[:]),
	}

	var finalized finalizeArtifactResponse
	if err := c.twirp(ctx, "FinalizeArtifact", finalize, &finalized); err != nil {
		return nil, err
	}
	if !finalized.OK {
		return nil, errors.NewAPIError("FinalizeArtifact was rejected", http.StatusOK, map[string]any{
			"artifact": name,
		})
	}

	id, err := strconv.ParseInt(finalized.ArtifactID, 10, 64)
	if err != nil {
		return nil, errors.NewAPIError("FinalizeArtifact returned a non-numeric id", http.StatusOK, map[string]any{
			"artifact_id": finalized.ArtifactID,
		}).WithCause(err)
	}

	c.logger.Info("Artifact finalized",
		zap.String("artifact", name),
		zap.Int64("artifact_id", id),
		zap.Int("size", len(content)),
	)

	return &UploadedArtifact{ID: id, Name: name, Size: int64(len(content))}, nil
}

func (c *ResultsClient) twirp(ctx context.Context, method string, reqBody, respBody any) error {
	url := c.baseURL + constants.ArtifactConfig.ResultsPrefix + method

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return errors.NewAPIError("failed to marshal request", 400, map[string]any{
			"method": method,
		}).WithCause(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return errors.NewAPIError("failed to create request", 500, map[string]any{
			"method": method,
		}).WithCause(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token.Reveal())
	req.Header.Set("User-Agent", constants.APIConfig.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.NewAPIError("results service request failed", 500, map[string]any{
			"method": method,
		}).WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return errors.NewAPIError(fmt.Sprintf("results service error: %s", resp.Status), resp.StatusCode, map[string]any{
			"method": method,
			"body":   string(bodyBytes),
		})
	}

	if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
		return errors.NewAPIError("failed to decode response", 500, map[string]any{
			"method": method,
		}).WithCause(err)
	}
	return nil
}

func (c *ResultsClient) putBlob(ctx context.Context, signedURL string, content []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, signedURL, bytes.NewReader(content))
	if err != nil {
		return errors.NewAPIError("failed to create blob request", 500, nil).WithCause(withoutURL(err))
	}
	req.ContentLength = int64(len(content))
	req.Header.Set("x-ms-blob-type", "BlockBlob")
	req.Header.Set("Content-Type", "application/zip")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.NewAPIError("blob upload failed", 500, nil).WithCause(withoutURL(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.NewAPIError(fmt.Sprintf("blob upload error: %s", resp.Status), resp.StatusCode, nil)
	}
	return nil
}
