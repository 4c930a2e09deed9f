package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"clinic-booking/internal/domain"
	"clinic-booking/internal/service"
)

// Handler wires HTTP routes to domain services.
type Handler struct {
	users        service.UserService
	appointments service.AppointmentService
	jwtSecret    string
	tokenTTL     time.Duration
	logger       *logrus.Logger
}

func NewHandler(users service.UserService, appointments service.AppointmentService, jwtSecret string, tokenTTL time.Duration, logger *logrus.Logger) *Handler {
	return &Handler{
		users:        users,
		appointments: appointments,
		jwtSecret:    jwtSecret,
		tokenTTL:     tokenTTL,
		logger:       logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	limiter := NewRateLimiter(5, 10)

	router.GET("/", h.home)
	router.GET("/contact", h.staticPage("contact"))
	router.GET("/images", h.staticPage("images"))
	router.GET("/about", h.staticPage("about"))

	router.GET("/register", h.registerPage)
	router.POST("/register", limiter.Middleware(), h.register)
	router.GET("/login", h.loginPage)
	router.POST("/login", limiter.Middleware(), h.login)

	authed := router.Group("/")
	authed.Use(h.requireAuth())
	{
		authed.GET("/logout", h.logout)
		authed.GET("/appointment", h.appointmentPage)
		authed.POST("/appointment", h.bookAppointment)
		authed.GET("/view_appointments", h.viewAppointments)
		authed.GET("/edit_appointment/:id", h.editAppointmentPage)
		authed.POST("/edit_appointment/:id", h.editAppointment)
		authed.GET("/delete_appointment/:id", h.deleteAppointment)
	}
}

func (h *Handler) home(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"page": "home", "flash": h.popFlash(c)})
}

func (h *Handler) staticPage(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"page": name, "flash": h.popFlash(c)})
	}
}

func (h *Handler) registerPage(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"page": "register", "flash": h.popFlash(c)})
}

func (h *Handler) register(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")
	role := domain.Role(c.PostForm("role"))

	if _, err := h.users.Register(c.Request.Context(), username, password, role); err != nil {
		switch {
		case errors.Is(err, service.ErrUsernameTaken):
			h.flashAndRedirect(c, "danger", "Username already exists. Choose a different one.", "/register")
		case isValidation(err):
			h.flashAndRedirect(c, "danger", err.Error(), "/register")
		default:
			h.serverError(c, "register", err)
		}
		return
	}

	h.flashAndRedirect(c, "success", "Registration successful! You can now log in.", "/login")
}

func (h *Handler) loginPage(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"page": "login", "flash": h.popFlash(c)})
}

func (h *Handler) login(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")

	user, err := h.users.Authenticate(c.Request.Context(), username, password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			h.flashAndRedirect(c, "danger", "Invalid username or password.", "/login")
			return
		}
		h.serverError(c, "login", err)
		return
	}

	if err := h.establishSession(c, user); err != nil {
		h.serverError(c, "login", err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/view_appointments")
}

func (h *Handler) logout(c *gin.Context) {
	h.clearSession(c)
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handler) appointmentPage(c *gin.Context) {
	doctors, err := h.users.ListDoctors(c.Request.Context())
	if err != nil {
		h.serverError(c, "list doctors", err)
		return
	}

	names := make([]string, len(doctors))
	for i := range doctors {
		names[i] = doctors[i].Username
	}
	c.JSON(http.StatusOK, gin.H{"page": "appointment", "doctors": names, "flash": h.popFlash(c)})
}

func (h *Handler) bookAppointment(c *gin.Context) {
	user := currentUser(c)

	appt, err := h.appointments.Book(
		c.Request.Context(),
		user,
		c.PostForm("doctor_name"),
		c.PostForm("date"),
		c.PostForm("time"),
	)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDoctorNotFound):
			h.flashAndRedirect(c, "danger", "Doctor does not exist. Please enter a valid doctor's username.", "/appointment")
		case isValidation(err):
			h.flashAndRedirect(c, "danger", err.Error(), "/appointment")
		default:
			h.serverError(c, "book appointment", err)
		}
		return
	}

	h.logger.WithFields(logrus.Fields{
		"appointment": appt.ID,
		"patient":     appt.PatientName,
		"doctor":      appt.DoctorName,
	}).Info("appointment booked")
	h.flashAndRedirect(c, "success", "Appointment booked successfully!", "/view_appointments")
}

func (h *Handler) viewAppointments(c *gin.Context) {
	user := currentUser(c)

	appts, err := h.appointments.ListForUser(c.Request.Context(), user)
	if err != nil {
		h.serverError(c, "list appointments", err)
		return
	}

	resp := make([]AppointmentResponse, len(appts))
	for i := range appts {
		resp[i] = appointmentToResponse(appts[i])
	}
	c.JSON(http.StatusOK, gin.H{"page": "view_appointments", "appointments": resp, "flash": h.popFlash(c)})
}

func (h *Handler) editAppointmentPage(c *gin.Context) {
	user := currentUser(c)
	id, ok := appointmentID(c)
	if !ok {
		h.notAuthorized(c, "edit")
		return
	}

	appt, err := h.appointments.Get(c.Request.Context(), id, user)
	if err != nil {
		h.handleMutationError(c, "edit", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"page": "edit_appointment", "appointment": appointmentToResponse(*appt), "flash": h.popFlash(c)})
}

func (h *Handler) editAppointment(c *gin.Context) {
	user := currentUser(c)
	id, ok := appointmentID(c)
	if !ok {
		h.notAuthorized(c, "edit")
		return
	}

	_, err := h.appointments.Update(c.Request.Context(), id, c.PostForm("date"), c.PostForm("time"), user)
	if err != nil {
		h.handleMutationError(c, "edit", err)
		return
	}
	h.flashAndRedirect(c, "success", "Appointment updated successfully!", "/view_appointments")
}

func (h *Handler) deleteAppointment(c *gin.Context) {
	user := currentUser(c)
	id, ok := appointmentID(c)
	if !ok {
		h.notAuthorized(c, "delete")
		return
	}

	if err := h.appointments.Delete(c.Request.Context(), id, user); err != nil {
		h.handleMutationError(c, "delete", err)
		return
	}
	h.flashAndRedirect(c, "danger", "Appointment deleted successfully!", "/view_appointments")
}

// handleMutationError maps edit/delete failures onto redirects. Not-found and
// not-authorized share one message so callers cannot probe which ids exist.
func (h *Handler) handleMutationError(c *gin.Context, action string, err error) {
	switch {
	case errors.Is(err, service.ErrAppointmentNotFound), errors.Is(err, service.ErrNotAuthorized):
		h.notAuthorized(c, action)
	case isValidation(err):
		h.flashAndRedirect(c, "danger", err.Error(), "/view_appointments")
	default:
		h.serverError(c, action+" appointment", err)
	}
}

func (h *Handler) notAuthorized(c *gin.Context, action string) {
	h.flashAndRedirect(c, "danger", "You are not authorized to "+action+" this appointment.", "/view_appointments")
}

func (h *Handler) flashAndRedirect(c *gin.Context, level, message, location string) {
	h.setFlash(c, level, message)
	c.Redirect(http.StatusSeeOther, location)
}

func (h *Handler) serverError(c *gin.Context, op string, err error) {
	h.logger.WithError(err).Errorf("%s failed", op)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong"})
}

func appointmentID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func isValidation(err error) bool {
	var verr *service.ValidationError
	return errors.As(err, &verr)
}

type AppointmentResponse struct {
	ID          int64  `json:"id"`
	PatientName string `json:"patient_name"`
	DoctorName  string `json:"doctor_name"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

func appointmentToResponse(appt domain.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:          appt.ID,
		PatientName: appt.PatientName,
		DoctorName:  appt.DoctorName,
		Date:        appt.Date,
		Time:        appt.Time,
		CreatedAt:   appt.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   appt.UpdatedAt.Format(time.RFC3339),
	}
}
