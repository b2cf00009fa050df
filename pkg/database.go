package translator

import (
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	sqlx "github.com/jmoiron/sqlx" //make alias name the package to sqlx
)

// ConnectToDatabase opens the run database holding detector aliases.
func ConnectToDatabase(user string, pass string, host string, dbname string) (*sqlx.DB, error) {
	port := "3306"
	dbURI := fmt.Sprintf("%s:%s@(%s:%s)/%s?parseTime=true", user, pass, host, port, dbname)
	db, err := sqlx.Connect("mysql", dbURI)
	return db, err
}

type DetectorAliasEntry struct {
	Source string `db:"Source"`
	Alias  string `db:"Alias"`
}

// LoadDetectorAliases reads the detector aliases valid for the run and
// merges them over the static source table. Aliases let an instrument
// rename detectors between runs without a code change.
func (t *Translator) LoadDetectorAliases(db *sqlx.DB, runNumber int) error {
	aliases, err := getDetectorAliasesFromDB(db, runNumber, t.cfg.Verbosity)
	if err != nil {
		errMessage := fmt.Errorf("error getting detector aliases from database: %w", err)
		logger.Error().Str("module", "database").Msg(errMessage.Error())
		return errMessage
	}
	for src, alias := range aliases {
		t.reg.setAlias(src, alias)
	}
	return nil
}

func getDetectorAliasesFromDB(db *sqlx.DB, runNumber int, verbosity int) (map[SourceID]string, error) {
	query := "SELECT Source, Alias FROM DetectorAliases WHERE MinRun <= %d and MaxRun >= %d ORDER BY Source"
	query = fmt.Sprintf(query, runNumber, runNumber)

	if verbosity > 0 {
		logger.Info().Str("module", "database").Msg("Detector aliases read from DB")
	}
	if verbosity > 2 {
		logger.Info().Str("module", "database").Msgf("Query: %s", query)
	}

	rows, err := db.Queryx(query)
	if err != nil {
		errMessage := fmt.Errorf("error querying database: %w", err)
		return nil, errMessage
	}
	defer rows.Close()

	aliases := make(map[SourceID]string)
	for rows.Next() {
		result := DetectorAliasEntry{}
		err := rows.StructScan(&result)
		if err != nil {
			errMessage := fmt.Errorf("error scanning DB row: %w", err)
			return nil, errMessage
		}
		aliases[SourceID(result.Source)] = result.Alias
	}
	return aliases, nil
}
