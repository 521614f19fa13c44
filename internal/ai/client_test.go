package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"ascend/physique-app/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidateResponse(text string) string {
	payload := map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]any{{"text": text}}}},
		},
	}
	b, _ := json.Marshal(payload)
	return string(b)
}

func testPlanJSON(weeks int) string {
	return fmt.Sprintf(`{"timelineWeeks":%d,"workout":[{"day":"Monday","focus":"Chest","exercises":[{"name":"Bench Press","sets":4,"reps":"8-10"}]}],"nutrition":{"calories":2400,"protein":180,"carbs":220,"fats":80,"meals":[]},"coachAnalysis":{"summary":"derived"}}`, weeks)
}

func TestGeneratePlanParsesModelOutput(t *testing.T) {
	var gotPath string
	var gotBody generateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		fmt.Fprint(w, candidateResponse(testPlanJSON(14)))
	}))
	defer server.Close()

	client := NewClient("test-key", nil, WithBaseURL(server.URL), WithModel("test-model"))

	plan, err := client.GeneratePlan(context.Background(), PlanRequest{
		Profile:     domain.UserProfile{Age: 30, Height: 180, Weight: 90, Gender: domain.GenderMale},
		CurrentBody: domain.DefaultBodyStats(),
		TargetBody:  domain.DefaultBodyStats(),
		Difficulty:  "balanced",
	})
	require.NoError(t, err)
	assert.Equal(t, 14, plan.TimelineWeeks)
	require.Len(t, plan.Workout, 1)
	assert.Equal(t, "Bench Press", plan.Workout[0].Exercises[0].Name)

	assert.Equal(t, "/models/test-model:generateContent", gotPath)
	require.NotNil(t, gotBody.SystemInstruction)
	require.NotNil(t, gotBody.GenerationConfig)
	assert.Equal(t, "application/json", gotBody.GenerationConfig.ResponseMimeType)
}

func TestGeneratePlanRecoveryModeOverridesTimeline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, candidateResponse(testPlanJSON(14)))
	}))
	defer server.Close()

	client := NewClient("test-key", nil, WithBaseURL(server.URL))

	plan, err := client.GeneratePlan(context.Background(), PlanRequest{RecoveryMode: true})
	require.NoError(t, err)
	assert.True(t, plan.IsRecoveryPlan)
	assert.Equal(t, 1, plan.TimelineWeeks)
}

func TestRetryOnRateLimitThenSuccess(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, candidateResponse(testPlanJSON(8)))
	}))
	defer server.Close()

	client := NewClient("test-key", nil, WithBaseURL(server.URL), WithRetry(3, time.Millisecond))

	plan, err := client.GeneratePlan(context.Background(), PlanRequest{})
	require.NoError(t, err)
	assert.Equal(t, 8, plan.TimelineWeeks)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRetryBudgetExhausted(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient("test-key", nil, WithBaseURL(server.URL), WithRetry(2, time.Millisecond))

	_, err := client.GeneratePlan(context.Background(), PlanRequest{})
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, int32(3), calls.Load()) // initial attempt + 2 retries
}

func TestNonRetryableStatusFailsImmediately(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"message":"bad request"}}`)
	}))
	defer server.Close()

	client := NewClient("test-key", nil, WithBaseURL(server.URL), WithRetry(3, time.Millisecond))

	_, err := client.GeneratePlan(context.Background(), PlanRequest{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, int32(1), calls.Load())
}

func TestEmptyCandidateIsAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"candidates":[]}`)
	}))
	defer server.Close()

	client := NewClient("test-key", nil, WithBaseURL(server.URL))

	_, err := client.GeneratePlan(context.Background(), PlanRequest{})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestContextCancelStopsBackoff(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient("test-key", nil, WithBaseURL(server.URL), WithRetry(5, time.Hour))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.GeneratePlan(ctx, PlanRequest{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAnalyzeMealSendsInlineImage(t *testing.T) {
	var gotBody generateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		fmt.Fprint(w, candidateResponse(`{"name":"Chicken bowl","calories":520,"verdict":"approved"}`))
	}))
	defer server.Close()

	client := NewClient("test-key", nil, WithBaseURL(server.URL))

	analysis, err := client.AnalyzeMeal(context.Background(), "aW1hZ2U=", "image/jpeg",
		&domain.NutritionPlan{Meals: []domain.Meal{{Name: "Oats"}}})
	require.NoError(t, err)
	assert.Equal(t, "Chicken bowl", analysis.Name)
	assert.Empty(t, analysis.Error)

	require.Len(t, gotBody.Contents, 1)
	parts := gotBody.Contents[0].Parts
	require.Len(t, parts, 2)
	require.NotNil(t, parts[0].InlineData)
	assert.Equal(t, "image/jpeg", parts[0].InlineData.MimeType)
	assert.Contains(t, parts[1].Text, "Oats")
}

func TestAnalyzeMealNonFoodError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, candidateResponse(`{"error":"Please upload a clear image of food."}`))
	}))
	defer server.Close()

	client := NewClient("test-key", nil, WithBaseURL(server.URL))

	analysis, err := client.AnalyzeMeal(context.Background(), "aW1hZ2U=", "image/jpeg", nil)
	require.NoError(t, err)
	assert.Equal(t, "Please upload a clear image of food.", analysis.Error)
	assert.Empty(t, analysis.Name)
}
