// controllers/mobile.go
package controllers

import (
	"net/http"

	"salonlink-backend/config"
	"salonlink-backend/services"
	"salonlink-backend/utils"

	"github.com/gin-gonic/gin"
)

// Mobile endpoints span salons: one phone number fans out into every
// salon-scoped customer row that matches it. An empty resolution is a
// normal answer ("no known identity"), never an error.

// ResolveIdentity expands a raw phone string into its normalized digits and
// the matching customer refs across salons.
func ResolveIdentity(c *gin.Context) {
	phone := c.Query("phone")
	if phone == "" {
		utils.RespondWithError(c, http.StatusBadRequest, "Phone query parameter is required")
		return
	}

	identity := services.NewIdentityService(config.DB)
	digits, refs, err := identity.ResolvePhone(phone)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to resolve identity")
		return
	}

	if refs == nil {
		refs = []services.CustomerRef{}
	}
	c.JSON(http.StatusOK, gin.H{
		"phone":     digits,
		"customers": refs,
	})
}

// GetMobileAppointments returns a customer's appointments across every
// salon they are known at, grouped by salon.
func GetMobileAppointments(c *gin.Context) {
	phone := c.Query("phone")
	if phone == "" {
		utils.RespondWithError(c, http.StatusBadRequest, "Phone query parameter is required")
		return
	}

	identity := services.NewIdentityService(config.DB)
	groups, err := identity.AppointmentsAcrossSalons(phone)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to aggregate appointments")
		return
	}

	if groups == nil {
		groups = []services.SalonAppointments{}
	}
	c.JSON(http.StatusOK, gin.H{"salons": groups})
}

// GetMobilePackages returns a customer's active packages across every
// salon they are known at, grouped by salon.
func GetMobilePackages(c *gin.Context) {
	phone := c.Query("phone")
	if phone == "" {
		utils.RespondWithError(c, http.StatusBadRequest, "Phone query parameter is required")
		return
	}

	identity := services.NewIdentityService(config.DB)
	groups, err := identity.PackagesAcrossSalons(phone)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to aggregate packages")
		return
	}

	if groups == nil {
		groups = []services.SalonPackages{}
	}
	c.JSON(http.StatusOK, gin.H{"salons": groups})
}
