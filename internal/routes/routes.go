package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/zaqqye/seb_exam_gate/internal/config"
	"github.com/zaqqye/seb_exam_gate/internal/controllers"
	"github.com/zaqqye/seb_exam_gate/internal/hooks"
	"github.com/zaqqye/seb_exam_gate/internal/lockdown"
	"github.com/zaqqye/seb_exam_gate/internal/middleware"
	"github.com/zaqqye/seb_exam_gate/internal/models"
	"github.com/zaqqye/seb_exam_gate/internal/repository"
	"github.com/zaqqye/seb_exam_gate/internal/ws"
)

// Deps are the long-lived services the handlers share.
type Deps struct {
	Engine    *lockdown.Engine
	Hooks     *hooks.Registry
	Directory *repository.Directory
	Hubs      *ws.Hubs
}

func Register(r *gin.Engine, db *gorm.DB, cfg *config.Config, deps Deps) {
	// Controllers
	authCtrl := &controllers.AuthController{DB: db, JWTSecret: cfg.JWTSecret, ExpiresIn: cfg.TokenTTL()}
	adminCtrl := &controllers.AdminController{DB: db}
	courseCtrl := &controllers.CourseController{DB: db, Engine: deps.Engine, Directory: deps.Directory}
	regCtrl := &controllers.RegistrationController{DB: db, Directory: deps.Directory}
	examCtrl := &controllers.ExamController{Engine: deps.Engine}
	examAdminCtrl := &controllers.ExamAdminController{DB: db, Engine: deps.Engine}
	subCtrl := &controllers.SubmissionController{DB: db, Engine: deps.Engine}
	monCtrl := &controllers.MonitoringController{Engine: deps.Engine}
	cfgCtrl := &controllers.ConfigController{Cfg: cfg}

	authMW := middleware.AuthMiddleware(db, middleware.AuthConfig{
		JWTSecret:    cfg.JWTSecret,
		JWTExpiresIn: cfg.TokenTTL(),
	})
	lockdownMW := middleware.Lockdown(cfg.PublicBaseURL)

	// Public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/seb-quit", controllers.SebQuit(cfg.PublicBaseURL))
	r.GET("/api/v1/config/public", cfgCtrl.Get)
	auth := r.Group("/api/v1/auth")
	{
		auth.POST("/login", authCtrl.Login)
	}

	// Portal pages, reached from inside SEB with the token cookie.
	portal := r.Group("", authMW, lockdownMW)
	{
		portal.GET("/courses", middleware.Gate(deps.Hooks, hooks.PointMainMenu), courseCtrl.MainMenu)

		page := portal.Group("", middleware.Gate(deps.Hooks, hooks.PointPage))
		page.GET("/course/:course_id", courseCtrl.CoursePage)
		page.GET("/course/:course_id/submissions", subCtrl.ListMine)
		page.POST("/course/:course_id/submissions", subCtrl.Submit)
		page.DELETE("/course/:course_id/registration", courseCtrl.Unregister)

		// The finished-exam redirect targets this page, so it is not gated.
		portal.GET("/exam/:course_id", examCtrl.Page)
		portal.POST("/exam/:course_id", examCtrl.Enter)

		examAdmin := portal.Group("/admin/:course_id/exam", middleware.RequireRoles(models.RoleAdmin))
		examAdmin.GET("", examAdminCtrl.Page)
		examAdmin.POST("", examAdminCtrl.Action)
		examAdmin.GET("/audit", examAdminCtrl.Audit)
	}

	// Protected
	api := r.Group("/api/v1", authMW)
	{
		api.GET("/auth/me", authCtrl.Me)
		api.POST("/auth/logout", authCtrl.Logout)

		// Admin-only
		admin := api.Group("/admin", middleware.RequireRoles(models.RoleAdmin))
		{
			admin.GET("/users", adminCtrl.ListUsers)
			admin.POST("/users", adminCtrl.CreateUser)
			admin.GET("/users/:user_id", adminCtrl.GetUser)
			admin.PUT("/users/:user_id", adminCtrl.UpdateUser)
			admin.DELETE("/users/:user_id", adminCtrl.DeleteUser)

			admin.GET("/courses", courseCtrl.ListCourses)
			admin.POST("/courses", courseCtrl.CreateCourse)
			admin.GET("/courses/:course_id", courseCtrl.GetCourse)
			admin.PUT("/courses/:course_id", courseCtrl.UpdateCourse)
			admin.DELETE("/courses/:course_id", courseCtrl.DeleteCourse)

			admin.GET("/courses/:course_id/registrations", regCtrl.ListRegistrations)
			admin.POST("/courses/:course_id/registrations", regCtrl.Register)
			admin.DELETE("/courses/:course_id/registrations/:username", regCtrl.Unregister)
		}

		// Supervisors (and admin)
		monitoring := api.Group("/monitoring/courses/:course_id", middleware.RequireRoles(models.RolePengawas), lockdownMW)
		{
			monitoring.GET("/students", monCtrl.ListStudents)
			monitoring.POST("/finalize", monCtrl.FinalizeStudent)
			monitoring.POST("/cancel", monCtrl.CancelStudent)
		}

		// Realtime
		wsGroup := api.Group("/ws")
		{
			wsGroup.GET("/monitoring", middleware.RequireRoles(models.RolePengawas), ws.MonitoringHandler(db, deps.Hubs.Monitoring))
			wsGroup.GET("/student", middleware.RequireRoles(models.RoleSiswa), ws.StudentHandler(deps.Hubs))
		}
	}
}
