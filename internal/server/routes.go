package server

import (
	"github.com/gorilla/mux"
	"net/http"
)

func (s Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.loggingMw, s.maxBytesMw)

	r.PathPrefix("/files/").Handler(
		http.StripPrefix("/files/", http.FileServer(http.Dir(s.Storage.BaseDir))))

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/user/login", s.userLogin()).Methods(http.MethodPost)

	userAPI := api.PathPrefix("/user").Subrouter()
	userAPI.Use(s.authMw)
	userAPI.HandleFunc("/logout", s.userLogout()).Methods(http.MethodPost)
	userAPI.HandleFunc("/info", s.userInfo()).Methods(http.MethodGet)
	userAPI.HandleFunc("/fcm-token", s.fcmTokenRegister()).Methods(http.MethodPost)
	userAPI.PathPrefix("").Handler(http.NotFoundHandler())

	billAPI := api.PathPrefix("/bill").Subrouter()
	billAPI.Use(s.authMw)
	billAPI.HandleFunc("/upload", s.billUpload()).Methods(http.MethodPost)
	billAPI.HandleFunc("/get", s.billGetMine()).Methods(http.MethodGet)
	billAPI.PathPrefix("").Handler(http.NotFoundHandler())

	schemeAPI := api.PathPrefix("/scheme").Subrouter()
	schemeAPI.Use(s.authMw)
	schemeAPI.HandleFunc("/get", s.schemeGetAll()).Methods(http.MethodGet)
	schemeAPI.HandleFunc("/request", s.schemeRequest()).Methods(http.MethodPost)
	schemeAPI.HandleFunc("/request/get", s.schemeRequestGetMine()).Methods(http.MethodGet)
	schemeAPI.PathPrefix("").Handler(http.NotFoundHandler())

	walletAPI := api.PathPrefix("/wallet").Subrouter()
	walletAPI.Use(s.authMw)
	walletAPI.HandleFunc("/get", s.walletGet()).Methods(http.MethodGet)
	walletAPI.PathPrefix("").Handler(http.NotFoundHandler())

	feedAPI := api.PathPrefix("/feed").Subrouter()
	feedAPI.Use(s.authMw)
	feedAPI.HandleFunc("/history", s.historyGet()).Methods(http.MethodGet)
	feedAPI.HandleFunc("/notification", s.notificationGet()).Methods(http.MethodGet)
	feedAPI.HandleFunc("/notification/read", s.notificationMarkRead()).Methods(http.MethodPost)
	feedAPI.HandleFunc("/poster", s.posterGetAll()).Methods(http.MethodGet)
	feedAPI.HandleFunc("/product", s.productGetAll()).Methods(http.MethodGet)
	feedAPI.PathPrefix("").Handler(http.NotFoundHandler())

	adminAPI := api.PathPrefix("/admin").Subrouter()
	adminAPI.Use(s.authMw, s.adminMw)
	adminAPI.HandleFunc("/counts", s.adminCounts()).Methods(http.MethodGet)
	adminAPI.HandleFunc("/user/create", s.adminUserCreate()).Methods(http.MethodPost)
	adminAPI.HandleFunc("/user/update", s.adminUserUpdate()).Methods(http.MethodPost)
	adminAPI.HandleFunc("/user/status", s.adminUserSetStatus()).Methods(http.MethodPost)
	adminAPI.HandleFunc("/user/delete", s.adminUserDelete()).Methods(http.MethodPost)
	adminAPI.HandleFunc("/user/get", s.adminUserList()).Methods(http.MethodGet)
	adminAPI.HandleFunc("/wallet/get/{uid}", s.adminWalletGet()).Methods(http.MethodGet)
	adminAPI.HandleFunc("/wallet/adjust", s.adminWalletAdjust()).Methods(http.MethodPost)
	adminAPI.HandleFunc("/bill/get", s.adminBillList()).Methods(http.MethodGet)
	adminAPI.HandleFunc("/bill/approve", s.billApprove()).Methods(http.MethodPost)
	adminAPI.HandleFunc("/bill/reject", s.billReject()).Methods(http.MethodPost)
	adminAPI.HandleFunc("/scheme-request/get", s.adminSchemeRequestList()).Methods(http.MethodGet)
	adminAPI.HandleFunc("/scheme-request/decide", s.schemeRequestDecide()).Methods(http.MethodPost)
	adminAPI.HandleFunc("/scheme/create", s.schemeCreate()).Methods(http.MethodPost)
	adminAPI.HandleFunc("/scheme/update", s.schemeUpdate()).Methods(http.MethodPost)
	adminAPI.HandleFunc("/scheme/delete", s.schemeDelete()).Methods(http.MethodPost)
	adminAPI.HandleFunc("/scheme/poster/{schemeID}", s.schemePosterUpload()).Methods(http.MethodPost)
	adminAPI.HandleFunc("/product/create", s.productCreate()).Methods(http.MethodPost)
	adminAPI.HandleFunc("/product/delete", s.productDelete()).Methods(http.MethodPost)
	adminAPI.HandleFunc("/poster/create", s.posterCreate()).Methods(http.MethodPost)
	adminAPI.HandleFunc("/poster/delete", s.posterDelete()).Methods(http.MethodPost)
	adminAPI.PathPrefix("").Handler(http.NotFoundHandler())

	return r
}
