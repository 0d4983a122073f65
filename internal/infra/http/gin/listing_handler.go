package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"staynest/internal/app/commands"
	listingsapp "staynest/internal/app/handlers/listings"
	"staynest/internal/app/queries"
)

type ListingHTTP interface {
	List(c *gin.Context)
	Get(c *gin.Context)
	Create(c *gin.Context)
	ListMine(c *gin.Context)
}

type ListingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

func (h ListingHandler) List(c *gin.Context) {
	collection, err := queries.Ask[listingsapp.ListListingsQuery, *listingsapp.ListingCollection](c.Request.Context(), h.Queries, listingsapp.ListListingsQuery{})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, collection)
}

func (h ListingHandler) Get(c *gin.Context) {
	q := listingsapp.GetListingQuery{ListingID: c.Param("id")}
	view, err := queries.Ask[listingsapp.GetListingQuery, *listingsapp.ListingView](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

type createListingRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`
	NightlyRate string `json:"nightly_rate"`
	Currency    string `json:"currency"`
}

func (h ListingHandler) Create(c *gin.Context) {
	user, ok := requireAuth(c)
	if !ok {
		return
	}
	var req createListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	cmd := listingsapp.CreateListingCommand{
		CommandID:   uuid.NewString(),
		HostID:      user.ID,
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		NightlyRate: req.NightlyRate,
		Currency:    req.Currency,
	}
	result, err := commands.Dispatch[listingsapp.CreateListingCommand, *listingsapp.CreateListingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h ListingHandler) ListMine(c *gin.Context) {
	user, ok := requireAuth(c)
	if !ok {
		return
	}
	q := listingsapp.HostListingsQuery{HostID: user.ID}
	collection, err := queries.Ask[listingsapp.HostListingsQuery, *listingsapp.ListingCollection](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, collection)
}

var _ ListingHTTP = ListingHandler{}
