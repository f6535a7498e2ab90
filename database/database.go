// Package database - Handles all interaction with ArangoDB
package database

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/arangodb/go-driver/v2/arangodb"
	"github.com/arangodb/go-driver/v2/connection"
	"github.com/cenkalti/backoff"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger = InitLogger() // setup the logger

// DBConnection is the structure that defined the database engine and collections
type DBConnection struct {
	Collections map[string]arangodb.Collection
	Database    arangodb.Database
}

// Define a struct to hold the index definition
type indexConfig struct {
	Collection string
	IdxName    string
	IdxField   string
}

var initDone = false          // has the data been initialized
var dbConnection DBConnection // database connection definition

// GetEnvDefault is a convenience function for handling env vars
func GetEnvDefault(key, defVal string) string {
	val, ex := os.LookupEnv(key) // get the env var
	if !ex {                     // not found return default
		return defVal
	}
	return val // return value for env var
}

// InitLogger sets up the Zap Logger to log to the console in a human readable format
func InitLogger() *zap.Logger {
	prodConfig := zap.NewProductionConfig()
	prodConfig.Encoding = "console"
	prodConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	prodConfig.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	logger, _ := prodConfig.Build()
	return logger
}

func dbConnectionConfig(endpoint connection.Endpoint, dbuser string, dbpass string) connection.HttpConfiguration {
	return connection.HttpConfiguration{
		Authentication: connection.NewBasicAuth(dbuser, dbpass),
		Endpoint:       endpoint,
		ContentType:    connection.ApplicationJSON,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: true, // #nosec G402
			},
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 90 * time.Second,
			}).DialContext,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}

// InitializeDatabase is the function for connecting to the db engine, creating the database and collections
func InitializeDatabase() DBConnection {
	const initialInterval = 10 * time.Second
	const maxInterval = 2 * time.Minute

	var db arangodb.Database
	var collections map[string]arangodb.Collection
	const databaseName = "posturemgt"

	ctx := context.Background()

	if initDone {
		return dbConnection
	}

	False := false
	True := true
	dbhost := GetEnvDefault("ARANGO_HOST", "localhost")
	dbport := GetEnvDefault("ARANGO_PORT", "8529")
	dbuser := GetEnvDefault("ARANGO_USER", "root")
	dbpass := GetEnvDefault("ARANGO_PASS", "mypassword")
	dburl := GetEnvDefault("ARANGO_URL", "http://"+dbhost+":"+dbport)

	var client arangodb.Client

	//
	// Database connection with backoff retry
	//

	// Configure exponential backoff
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = initialInterval
	bo.MaxInterval = maxInterval
	bo.MaxElapsedTime = 0 // Set to 0 for indefinite retries

	// Retry logic
	err := backoff.RetryNotify(func() error {
		fmt.Println("Attempting to connect to ArangoDB")
		endpoint := connection.NewRoundRobinEndpoints([]string{dburl})
		conn := connection.NewHttpConnection(dbConnectionConfig(endpoint, dbuser, dbpass))

		client = arangodb.NewClient(conn)

		// Ask the version of the server
		versionInfo, err := client.Version(context.Background())
		if err != nil {
			return err
		}

		logger.Sugar().Infof("Database has version '%s' and license '%s'\n", versionInfo.Version, versionInfo.License)
		return nil

	}, bo, func(err error, _ time.Duration) {
		fmt.Printf("Retrying connection to ArangoDB: %v\n", err)
	})

	if err != nil {
		logger.Sugar().Fatalf("Backoff Error %v\n", err)
	}

	//
	// Database creation
	//

	exists := false
	dblist, _ := client.Databases(ctx)

	for _, dbinfo := range dblist {
		if dbinfo.Name() == databaseName {
			exists = true
			break
		}
	}

	if exists {
		var options arangodb.GetDatabaseOptions
		if db, err = client.GetDatabase(ctx, databaseName, &options); err != nil {
			logger.Sugar().Fatalf("Failed to get Database: %v", err)
		}
	} else {
		if db, err = client.CreateDatabase(ctx, databaseName, nil); err != nil {
			logger.Sugar().Fatalf("Failed to create Database: %v", err)
		}
	}

	//
	// Collection creation for document storage
	//

	collections = make(map[string]arangodb.Collection)
	collectionNames := []string{"asset", "vulnerability", "framework", "control", "risk", "job", "schedule", "org_score"}

	for _, collectionName := range collectionNames {
		var col arangodb.Collection

		exists, _ = db.CollectionExists(ctx, collectionName)
		if exists {
			var options arangodb.GetCollectionOptions
			if col, err = db.GetCollection(ctx, collectionName, &options); err != nil {
				logger.Sugar().Fatalf("Failed to use collection: %v", err)
			}
		} else {
			if col, err = db.CreateCollectionV2(ctx, collectionName, nil); err != nil {
				logger.Sugar().Fatalf("Failed to create collection: %v", err)
			}
		}

		collections[collectionName] = col
	}

	//
	// Edge collection creation
	//

	edgeCollectionNames := []string{"asset2vuln"}

	for _, edgeCollectionName := range edgeCollectionNames {
		var col arangodb.Collection

		exists, _ = db.CollectionExists(ctx, edgeCollectionName)
		if exists {
			var options arangodb.GetCollectionOptions
			if col, err = db.GetCollection(ctx, edgeCollectionName, &options); err != nil {
				logger.Sugar().Fatalf("Failed to use edge collection: %v", err)
			}
		} else {
			edgeType := arangodb.CollectionTypeEdge
			if col, err = db.CreateCollectionV2(ctx, edgeCollectionName, &arangodb.CreateCollectionPropertiesV2{
				Type: &edgeType,
			}); err != nil {
				logger.Sugar().Fatalf("Failed to create edge collection: %v", err)
			}
		}

		collections[edgeCollectionName] = col
	}

	//
	// Index creation for document collections
	//

	idxList := []indexConfig{
		// Asset collection indexes
		{Collection: "asset", IdxName: "asset_name", IdxField: "name"},
		{Collection: "asset", IdxName: "asset_environment", IdxField: "environment"},
		{Collection: "asset", IdxName: "asset_risk_score", IdxField: "risk_score"},

		// Vulnerability collection indexes
		{Collection: "vulnerability", IdxName: "vuln_cve_id", IdxField: "cve_id"},
		{Collection: "vulnerability", IdxName: "vuln_severity", IdxField: "severity"},
		{Collection: "vulnerability", IdxName: "vuln_cvss_score", IdxField: "cvss_score"},

		// Compliance collection indexes
		{Collection: "framework", IdxName: "framework_name", IdxField: "name"},
		{Collection: "framework", IdxName: "framework_status", IdxField: "status"},
		{Collection: "control", IdxName: "control_framework", IdxField: "framework_id"},
		{Collection: "control", IdxName: "control_status", IdxField: "status"},

		// Job collection indexes for activity queries
		{Collection: "job", IdxName: "job_state", IdxField: "state"},
		{Collection: "job", IdxName: "job_kind", IdxField: "kind"},
		{Collection: "job", IdxName: "job_created_at", IdxField: "created_at"},
		{Collection: "job", IdxName: "job_schedule", IdxField: "schedule_id"},

		// Schedule collection indexes - the tick scans enabled schedules by next_run
		{Collection: "schedule", IdxName: "schedule_enabled", IdxField: "spec.enabled"},
		{Collection: "schedule", IdxName: "schedule_next_run", IdxField: "next_run"},

		// Edge collection indexes for link traversals
		{Collection: "asset2vuln", IdxName: "asset2vuln_from", IdxField: "_from"},
		{Collection: "asset2vuln", IdxName: "asset2vuln_to", IdxField: "_to"},
		{Collection: "asset2vuln", IdxName: "asset2vuln_status", IdxField: "status"},
	}

	for _, idx := range idxList {
		found := false

		if indexes, err := collections[idx.Collection].Indexes(ctx); err == nil {
			for _, index := range indexes {
				if idx.IdxName == index.Name {
					found = true
					break
				}
			}
		}

		if !found {
			// Define the index options
			indexOptions := arangodb.CreatePersistentIndexOptions{
				Unique: &False,
				Sparse: &False,
				Name:   idx.IdxName,
			}

			// Create the index
			_, _, err = collections[idx.Collection].EnsurePersistentIndex(ctx, []string{idx.IdxField}, &indexOptions)
			if err != nil {
				logger.Sugar().Fatalln("Error creating index:", err)
			} else {
				logger.Sugar().Infof("Created index: %s on %s.%s", idx.IdxName, idx.Collection, idx.IdxField)
			}
		}
	}

	//
	// Create composite indexes (multi-field indexes)
	//

	// Composite index for the active-link rollup query by _from + status
	linkStatusIdx := "asset2vuln_from_status"
	found := false
	if indexes, err := collections["asset2vuln"].Indexes(ctx); err == nil {
		for _, index := range indexes {
			if linkStatusIdx == index.Name {
				found = true
				break
			}
		}
	}
	if !found {
		compositeIdxOptions := arangodb.CreatePersistentIndexOptions{
			Unique: &False,
			Sparse: &False,
			Name:   linkStatusIdx,
		}
		_, _, err = collections["asset2vuln"].EnsurePersistentIndex(ctx, []string{"_from", "status"}, &compositeIdxOptions)
		if err != nil {
			logger.Sugar().Fatalln("Error creating composite index:", err)
		} else {
			logger.Sugar().Infof("Created composite index: %s on asset2vuln", linkStatusIdx)
		}
	}

	// Composite index for the scheduler tick by enabled + next_run
	scheduleDueIdx := "schedule_enabled_next_run"
	found = false
	if indexes, err := collections["schedule"].Indexes(ctx); err == nil {
		for _, index := range indexes {
			if scheduleDueIdx == index.Name {
				found = true
				break
			}
		}
	}
	if !found {
		compositeIdxOptions := arangodb.CreatePersistentIndexOptions{
			Unique: &False,
			Sparse: &False,
			Name:   scheduleDueIdx,
		}
		_, _, err = collections["schedule"].EnsurePersistentIndex(ctx, []string{"spec.enabled", "next_run"}, &compositeIdxOptions)
		if err != nil {
			logger.Sugar().Fatalln("Error creating composite index:", err)
		} else {
			logger.Sugar().Infof("Created composite index: %s on schedule", scheduleDueIdx)
		}
	}

	// Unique index on framework name to prevent duplicates
	frameworkUniqueIdx := "framework_name_unique"
	found = false
	if indexes, err := collections["framework"].Indexes(ctx); err == nil {
		for _, index := range indexes {
			if frameworkUniqueIdx == index.Name {
				found = true
				break
			}
		}
	}
	if !found {
		uniqueIdxOptions := arangodb.CreatePersistentIndexOptions{
			Unique: &True,
			Sparse: &False,
			Name:   frameworkUniqueIdx,
		}
		_, _, err = collections["framework"].EnsurePersistentIndex(ctx, []string{"name"}, &uniqueIdxOptions)
		if err != nil {
			logger.Sugar().Fatalln("Error creating unique index on framework name:", err)
		} else {
			logger.Sugar().Infof("Created unique index: %s on framework", frameworkUniqueIdx)
		}
	}

	// Unique index on control framework_id + control_id
	controlUniqueIdx := "control_framework_control_unique"
	found = false
	if indexes, err := collections["control"].Indexes(ctx); err == nil {
		for _, index := range indexes {
			if controlUniqueIdx == index.Name {
				found = true
				break
			}
		}
	}
	if !found {
		uniqueIdxOptions := arangodb.CreatePersistentIndexOptions{
			Unique: &True,
			Sparse: &False,
			Name:   controlUniqueIdx,
		}
		_, _, err = collections["control"].EnsurePersistentIndex(ctx, []string{"framework_id", "control_id"}, &uniqueIdxOptions)
		if err != nil {
			logger.Sugar().Fatalln("Error creating unique index on control:", err)
		} else {
			logger.Sugar().Infof("Created unique index: %s on control", controlUniqueIdx)
		}
	}

	initDone = true

	dbConnection = DBConnection{
		Database:    db,
		Collections: collections,
	}

	logger.Sugar().Infof("Database initialization complete with posture collections and rollup indexes")

	return dbConnection
}

// FindAssetByName checks if an asset exists by name and returns its key
func FindAssetByName(ctx context.Context, db arangodb.Database, name string) (string, error) {
	query := `
		FOR a IN asset
			FILTER a.name == @name
			LIMIT 1
			RETURN a._key
	`
	bindVars := map[string]interface{}{
		"name": name,
	}

	cursor, err := db.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: bindVars,
	})
	if err != nil {
		return "", err
	}
	defer cursor.Close()

	if cursor.HasMore() {
		var key string
		_, err := cursor.ReadDocument(ctx, &key)
		if err != nil {
			return "", err
		}
		return key, nil
	}

	return "", nil
}

// FindFrameworkByName checks if a framework exists by name and returns its key
func FindFrameworkByName(ctx context.Context, db arangodb.Database, name string) (string, error) {
	query := `
		FOR f IN framework
			FILTER f.name == @name
			LIMIT 1
			RETURN f._key
	`
	bindVars := map[string]interface{}{
		"name": name,
	}

	cursor, err := db.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: bindVars,
	})
	if err != nil {
		return "", err
	}
	defer cursor.Close()

	if cursor.HasMore() {
		var key string
		_, err := cursor.ReadDocument(ctx, &key)
		if err != nil {
			return "", err
		}
		return key, nil
	}

	return "", nil
}
