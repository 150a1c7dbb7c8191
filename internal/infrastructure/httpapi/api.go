package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ersonp/provpack/internal/application/handlers"
	"github.com/ersonp/provpack/internal/domain/entities"
	"github.com/ersonp/provpack/internal/domain/provpack"
	"github.com/ersonp/provpack/internal/domain/validation"
)

const defaultListLimit = 50

type api struct {
	packets   *handlers.PacketHandler
	reviews   *handlers.ReviewHandler
	exports   *handlers.ExportHandler
	cases     *handlers.CaseHandler
	validator *validation.Validator
}

type locateRequest struct {
	Reference string `json:"mhg" binding:"required"`
	Year      int    `json:"year"`
}

type pageLink struct {
	Page int    `json:"page"`
	URL  string `json:"url"`
}

type imagesResponse struct {
	PacketID string     `json:"packetId"`
	Pages    []pageLink `json:"pages"`
}

type extractRequest struct {
	PacketID string `json:"packetId" binding:"required"`
	Pages    []int  `json:"pages"`
}

type approveRequest struct {
	PacketID      string          `json:"packetId" binding:"required"`
	ExtractedData json.RawMessage `json:"extractedData" binding:"required"`
}

type approveResponse struct {
	CaseID string `json:"caseId"`
}

type exportRequest struct {
	CaseID string `json:"caseId" binding:"required"`
	Pages  []int  `json:"pages"`
}

func (a *api) locate(c *gin.Context) {
	var req locateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	loc, err := a.packets.HandleLocate(req.Reference, req.Year)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	RespondOK(c, loc)
}

func (a *api) listImages(c *gin.Context) {
	packetID := c.Query("packetId")
	if packetID == "" {
		RespondError(c, http.StatusBadRequest, "bad_request", errors.New("packetId is required"))
		return
	}
	pages, err := a.packets.HandleListPages(c.Request.Context(), packetID)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	links := make([]pageLink, len(pages))
	for i, p := range pages {
		links[i] = pageLink{
			Page: p,
			URL:  fmt.Sprintf("/api/images/%s/%d", url.PathEscape(packetID), p),
		}
	}
	RespondOK(c, imagesResponse{PacketID: packetID, Pages: links})
}

func (a *api) image(c *gin.Context) {
	page, err := strconv.Atoi(c.Param("page"))
	if err != nil || page < 1 {
		RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid page %q", c.Param("page")))
		return
	}
	data, err := a.packets.HandlePage(c.Request.Context(), c.Param("packetId"), page)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.Data(http.StatusOK, http.DetectContentType(data), data)
}

func (a *api) extract(c *gin.Context) {
	var req extractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	res, err := a.packets.HandleExtract(c.Request.Context(), req.PacketID, req.Pages)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	RespondOK(c, res.Extraction)
}

func (a *api) approve(c *gin.Context) {
	var req approveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	x, err := a.validator.DecodeExtraction(req.ExtractedData)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	res, err := a.reviews.HandleApprove(c.Request.Context(), req.PacketID, x)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	RespondOK(c, approveResponse{CaseID: res.CaseID})
}

func (a *api) export(c *gin.Context) {
	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	archive, err := a.exports.HandleExport(c.Request.Context(), req.CaseID, req.Pages)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, archive.Filename))
	c.Data(http.StatusOK, provpack.ContentType, archive.Data)
}

func (a *api) listCases(c *gin.Context) {
	limit, err := queryInt(c, "limit", defaultListLimit)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	cases, err := a.cases.HandleList(c.Request.Context(), limit, offset)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"cases": cases})
}

type caseResponse struct {
	Case  *entities.Case        `json:"case"`
	Audit []entities.AuditEntry `json:"audit"`
}

func (a *api) showCase(c *gin.Context) {
	detail, err := a.cases.HandleShow(c.Request.Context(), c.Param("caseId"))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	canonical := detail.Case.Canonical()
	audit := detail.Audit
	if audit == nil {
		audit = []entities.AuditEntry{}
	}
	RespondOK(c, caseResponse{Case: &canonical, Audit: audit})
}

func (a *api) listAudit(c *gin.Context) {
	limit, err := queryInt(c, "limit", defaultListLimit)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	entries, err := a.cases.HandleActivity(c.Request.Context(), c.Query("action"), limit)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	if entries == nil {
		entries = []entities.AuditEntry{}
	}
	RespondOK(c, gin.H{"entries": entries})
}

func queryInt(c *gin.Context, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", name, raw)
	}
	return n, nil
}
