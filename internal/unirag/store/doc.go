// Package store 实现大学向量索引：嵌入、写入与带过滤条件的相似度检索。
// 后端可选 Milvus、PostgreSQL+pgvector 或进程内内存实现。
package store
