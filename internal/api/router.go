package api

import (
	httpSwagger "github.com/swaggo/http-swagger"

	_ "go-revenue-report/docs"
	"go-revenue-report/internal/api/handler"
	"go-revenue-report/internal/session"
	"go-revenue-report/pkg/router"
)

func RegisterRoutes(r *router.Router, sess *session.Session) {
	h := handler.NewReportHandler(sess)

	r.POST(handler.ReportsPath, h.CreateReport)
	r.GET(handler.ReportsPath, h.ListReports)
	// More specific routes first
	r.GET(handler.ReportStagesPath, h.GetReportStages)
	r.GET(handler.ReportLogsPath, h.GetReportLogs)
	// Generic report route last
	r.GET(handler.ReportPath, h.GetReport)

	r.GET("/swagger/*", router.HandlerFunc(httpSwagger.WrapHandler))
}
