package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"budgetly/internal/core"
	"budgetly/internal/log"
	"budgetly/internal/services"
)

type categoryView struct {
	Name  string     `json:"name"`
	Color core.Color `json:"color"`
}

type categorySet struct {
	Categories []categoryView             `json:"categories"`
	Defaults   services.TransactionInput `json:"defaults"`
}

func (s *Server) categorySet(kind core.Kind) categorySet {
	names := core.Categories(kind)
	set := categorySet{
		Categories: make([]categoryView, 0, len(names)),
		Defaults:   s.transactions.Defaults(kind),
	}
	for _, name := range names {
		set.Categories = append(set.Categories, categoryView{Name: name, Color: core.CategoryColor(kind, name)})
	}
	return set
}

func (s *Server) handleCategories(w http.ResponseWriter, _ *http.Request) {
	NewJSONResponse().Data(map[core.Kind]categorySet{
		core.KindExpense: s.categorySet(core.KindExpense),
		core.KindIncome:  s.categorySet(core.KindIncome),
	}).Write(w)
}

// handleCategoriesOf serves one kind; the path accepts singular and plural.
func (s *Server) handleCategoriesOf(w http.ResponseWriter, r *http.Request) {
	kind, err := core.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		ErrorResponse(http.StatusNotFound, err.Error()).Write(w)
		return
	}
	NewJSONResponse().Data(s.categorySet(kind)).Write(w)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	snap, err := s.dashboard.Snapshot(r.Context(), userFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err, log.OpList, "Could not load transactions.")
		return
	}
	NewJSONResponse().Data(snap).Write(w)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	s.createTransaction(w, r, core.KindExpense)
}

func (s *Server) handleCreateIncome(w http.ResponseWriter, r *http.Request) {
	s.createTransaction(w, r, core.KindIncome)
}

func (s *Server) createTransaction(w http.ResponseWriter, r *http.Request, kind core.Kind) {
	p, err := parseBody(r)
	if err != nil {
		s.writeError(w, r, err, log.OpCreate, "")
		return
	}
	tx, err := s.transactions.Create(r.Context(), userFrom(r.Context()), kind, services.TransactionInput{
		Title:       p.Get("title"),
		Amount:      p.Get("amount"),
		Category:    p.Get("category"),
		Description: p.Get("description"),
		Date:        p.Get("date"),
	})
	if err != nil {
		s.writeError(w, r, err, log.OpCreate, "Could not save the "+string(kind)+". Please try again.")
		return
	}

	msg := "Expense of " + core.FormatCurrency(tx.Amount) + " recorded"
	if kind == core.KindIncome {
		msg = "Income of " + core.FormatCurrency(tx.Amount) + " recorded"
	}
	NewJSONResponse().Status(http.StatusCreated).Data(tx).NotifySuccess(msg).Write(w)
}
