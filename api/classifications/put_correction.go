package classifications

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/killallgit/waskita-api/api/types"
	"github.com/killallgit/waskita-api/internal/models"
	apperrors "github.com/killallgit/waskita-api/pkg/errors"
)

// PutCorrection overrides the label of one classification result
// @Summary      Correct a classification
// @Description  Records a manual label. The model prediction is kept alongside it.
// @Tags         classifications
// @Accept       json
// @Produce      json
// @Param        X-User-ID header int false "Caller id"
// @Param        id path int true "Classification result ID"
// @Param        request body types.CorrectionRequest true "Corrected label"
// @Success      200 {object} models.ClassificationResult
// @Failure      400 {object} types.ErrorResponse
// @Failure      404 {object} types.ErrorResponse
// @Router       /api/v1/classifications/{id}/correction [put]
func PutCorrection(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := types.ParseUintParam(c, "id")
		if !ok {
			return
		}
		var body types.CorrectionRequest
		if !types.BindJSONOrError(c, &body) {
			return
		}
		owner, ok := types.OwnerID(c)
		if !ok {
			return
		}

		label := strings.ToLower(strings.TrimSpace(body.Label))
		if !models.IsValidLabel(label) {
			types.SendBadRequest(c, "label must be "+models.LabelRadical+" or "+models.LabelNonRadical)
			return
		}
		if deps.Classification == nil {
			types.SendError(c, apperrors.ConfigurationError("classifier.models", "no classification models are loaded"))
			return
		}

		var correctedBy *uint
		if owner != 0 {
			correctedBy = &owner
		}
		result, err := deps.Classification.CorrectResult(c.Request.Context(), id, label, correctedBy)
		if err != nil {
			types.SendError(c, err)
			return
		}
		types.SendSuccess(c, result)
	}
}
