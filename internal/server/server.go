package server

import (
	"fmt"
	"log"
	"net/http"

	"dnsapply/db"
	"dnsapply/internal/auth"
	"dnsapply/internal/config"
	"dnsapply/internal/database"
	"dnsapply/internal/handler"
	"dnsapply/internal/notify"
	"dnsapply/internal/service"
	"dnsapply/internal/workflow"
)

func Start(cfg *config.Config, version string) error {
	store, err := database.Open(cfg.Database.DSN, db.MigrationsFS())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	sessionMgr, err := auth.NewSessionManager(store)
	if err != nil {
		return fmt.Errorf("failed to init session manager: %w", err)
	}

	_ = store.PurgeExpiredSessions()

	// Initialize LDAP client (nil if disabled)
	var ldapClient *auth.LDAPClient
	if cfg.LDAP.Enabled {
		ldapClient = auth.NewLDAPClient(cfg.LDAP)
		log.Println("LDAP authentication enabled")
		log.Printf("LDAP server: %s", cfg.LDAP.URL)
		log.Printf("LDAP groups mapped: %d role(s)", len(cfg.LDAP.GroupMapping))
	}

	var publish workflow.PublishFunc
	if cfg.Route53.Enabled {
		publisher, err := service.NewRecordPublisher(cfg.Route53)
		if err != nil {
			return fmt.Errorf("failed to init record publisher: %w", err)
		}
		publish = publisher.Publish
		log.Printf("Route53 publication enabled for zone %s", cfg.Route53.HostedZoneID)
	}

	sender := &notify.SMTPSender{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		Username: cfg.Mail.Username,
		Password: cfg.Mail.Password,
		From:     cfg.Mail.From,
	}
	dispatcher := notify.NewDispatcher(sender, cfg.Mail.DnsTaAlias, cfg.Mail.QueueSize)
	defer dispatcher.Close()

	svc := workflow.NewService(store, store, dispatcher, publish)

	setupH := handler.NewSetupHandler(store)
	authH := handler.NewAuthHandler(store, sessionMgr, ldapClient)
	appH := handler.NewApplicationHandler(svc, sessionMgr, store)
	recH := handler.NewRecordHandler(store, sessionMgr)
	auditH := handler.NewAuditHandler(store, sessionMgr)
	userH := handler.NewUserHandler(svc, sessionMgr, store)

	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/setup", setupH.Setup)
	mux.HandleFunc("POST /api/login", authH.Login)
	mux.HandleFunc("POST /api/logout", authH.Logout)

	mux.HandleFunc("POST /api/applications", sessionMgr.ValidateCSRF(appH.Submit))
	mux.HandleFunc("GET /api/applications", appH.List)
	mux.HandleFunc("GET /api/applications/{id}", appH.Show)
	mux.HandleFunc("POST /api/applications/{id}/approve", sessionMgr.ValidateCSRF(appH.Approve))
	mux.HandleFunc("POST /api/applications/{id}/accept", sessionMgr.ValidateCSRF(appH.Accept))
	mux.HandleFunc("POST /api/applications/{id}/reject", sessionMgr.ValidateCSRF(appH.Reject))
	mux.HandleFunc("POST /api/applications/{id}/revoke", sessionMgr.ValidateCSRF(appH.Revoke))
	mux.HandleFunc("POST /api/applications/{id}/complete", sessionMgr.ValidateCSRF(appH.Complete))

	mux.HandleFunc("GET /api/records", recH.List)
	mux.HandleFunc("GET /api/records/{id}", recH.Show)

	mux.HandleFunc("GET /api/audit", auditH.List)

	mux.HandleFunc("GET /api/approvers", userH.ListApprovers)
	mux.HandleFunc("PUT /api/users/{id}", sessionMgr.ValidateCSRF(userH.Update))
	mux.HandleFunc("GET /api/users/{id}/applications", userH.ListApplications)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("dnsapply server starting on %s", addr)
	return http.ListenAndServe(addr, mux)
}
