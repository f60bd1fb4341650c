package cmd

import (
	"database/sql"
	"time"

	"github.com/pwvkpno/pwvkpno/internal/config"
	"github.com/pwvkpno/pwvkpno/internal/db"
	"github.com/pwvkpno/pwvkpno/internal/log"
	"github.com/pwvkpno/pwvkpno/internal/pwv"
)

// newSource builds the SuomiNet source; tests replace it.
var newSource = func(s config.SuomiNetSettings) pwv.Source {
	return pwv.NewSuomiClient(s.BaseURL, time.Duration(s.TimeoutSeconds)*time.Second, s.RequestsPerSecond)
}

// openStore wires a pwv.Store to the data directory and the database.
func openStore() (*pwv.Store, func(), error) {
	s, dbConn, err := openStoreDB()
	if err != nil {
		return nil, nil, err
	}
	return s, func() { _ = dbConn.Close() }, nil
}

func openStoreDB() (*pwv.Store, *sql.DB, error) {
	tables, err := config.TablesDir()
	if err != nil {
		return nil, nil, err
	}
	atm, err := config.AtmModelsDir()
	if err != nil {
		return nil, nil, err
	}
	dbConn, err := db.InitDB()
	if err != nil {
		return nil, nil, err
	}
	sn := settings.SuomiNet
	s := pwv.NewStore(tables, atm, pwv.NewYearCatalog(dbConn), newSource(sn), sn.Primary, sn.Receivers)
	s.Concurrency = sn.Concurrency
	s.Logger = log.WithComponent("pwv")
	return s, dbConn, nil
}
