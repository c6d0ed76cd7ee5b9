package mcp

import (
	"context"
	"encoding/json"

	"github.com/claude/ironlog/internal/models"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
)

// --- Tool definitions ---

var toolGetWorkoutLogs = mcp.NewTool("get_workout_logs",
	mcp.WithDescription("Retrieve finished workout logs, newest first. Each log includes duration, overall progress, and the full exercise/set snapshot with actual weights and reps."),
	mcp.WithNumber("limit", mcp.Description("Maximum number of logs to return. Defaults to 20.")),
)

var toolGetWorkoutLog = mcp.NewTool("get_workout_log",
	mcp.WithDescription("Retrieve one workout log by id with per-set completion detail."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Log id (UUID)")),
)

var toolGetActiveSession = mcp.NewTool("get_active_session",
	mcp.WithDescription("Retrieve the currently running workout session, if any: exercises, set completion state, and overall progress percentage."),
)

var toolGetTrainingVolume = mcp.NewTool("get_training_volume",
	mcp.WithDescription("Aggregate training volume over recent logs: session count, total/completed sets, total duration, and tonnage (sum of actual weight times actual reps over completed sets)."),
	mcp.WithNumber("sessions", mcp.Description("Number of recent sessions to aggregate. Defaults to 30.")),
)

var toolListExercises = mcp.NewTool("list_exercises",
	mcp.WithDescription("List all exercises visible to the user: shared system exercises plus their personal ones."),
)

// --- Tool handlers ---

func (h *handlers) getWorkoutLogs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 20)
	uid := UserIDFromContext(ctx)

	logs, err := h.ds.QueryLogs(ctx, uid, limit)
	if err != nil {
		h.log.Error("mcp get_workout_logs", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(logs)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getWorkoutLog(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idStr, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required"), nil
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return mcp.NewToolResultError("invalid log id: " + err.Error()), nil
	}

	uid := UserIDFromContext(ctx)
	log, err := h.ds.GetLog(ctx, id, uid)
	if err != nil {
		h.log.Error("mcp get_workout_log", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(log)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getActiveSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid := UserIDFromContext(ctx)

	sess, err := h.ds.LoadActiveSession(ctx, uid)
	if err != nil {
		h.log.Error("mcp get_active_session", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if sess == nil {
		return mcp.NewToolResultText("no active session"), nil
	}

	result, err := mcp.NewToolResultJSON(sess)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

// trainingVolume is the aggregate returned by get_training_volume.
type trainingVolume struct {
	Sessions      int     `json:"sessions"`
	TotalSets     int     `json:"totalSets"`
	CompletedSets int     `json:"completedSets"`
	DurationSec   float64 `json:"durationSec"`
	TonnageKg     float64 `json:"tonnageKg"`
}

func (h *handlers) getTrainingVolume(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("sessions", 30)
	uid := UserIDFromContext(ctx)

	logs, err := h.ds.QueryLogs(ctx, uid, limit)
	if err != nil {
		h.log.Error("mcp get_training_volume", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	var vol trainingVolume
	vol.Sessions = len(logs)
	for _, l := range logs {
		vol.TotalSets += l.TotalSets
		vol.CompletedSets += l.CompletedSets
		vol.DurationSec += l.DurationSec
		vol.TonnageKg += logTonnage(&l)
	}

	result, err := mcp.NewToolResultJSON(vol)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) listExercises(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid := UserIDFromContext(ctx)

	exercises, err := h.ds.ListExercises(ctx, uid)
	if err != nil {
		h.log.Error("mcp list_exercises", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(exercises)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

// logTonnage sums actual weight x actual reps over the log's completed sets,
// including drop-set reductions when their reps are recorded.
func logTonnage(l *models.Log) float64 {
	var total float64
	for _, e := range l.Exercises {
		for _, s := range e.Sets {
			if !s.IsCompleted || s.ActualWeight == nil || s.ActualReps == nil {
				continue
			}
			total += *s.ActualWeight * float64(*s.ActualReps)
			if len(s.DropSets) > 1 {
				// First drop entry inherits the base weight already counted.
				for _, d := range s.DropSets[1:] {
					if d.Reps != nil {
						total += d.Weight * float64(*d.Reps)
					}
				}
			}
		}
	}
	return total
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
